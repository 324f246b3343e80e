package middleware

import (
	"encoding/json"
	"net/http"

	"choreboard/internal/auth"
	"choreboard/internal/clock"
	"choreboard/internal/store"
)

const SessionCookieName = "choreboard_session"

// RequireAuth validates the session cookie and populates AuthContext. When
// the session carries an active house, the user's role there is resolved and
// attached; a membership revoked mid-session fails the request.
func RequireAuth(sessions *store.SessionStore, houses *store.HouseStore, clk clock.Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value, clk.Now())
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				UserID:    sess.UserID,
				SessionID: sess.ID,
			}
			if sess.ActiveHouseID != nil {
				member, err := houses.GetMember(*sess.ActiveHouseID, sess.UserID)
				if err != nil || member == nil {
					unauthorized(w)
					return
				}
				ac.HouseID = *sess.ActiveHouseID
				ac.Role = member.Role
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireHouse rejects requests whose session has no active house selected.
func RequireHouse(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.HouseID(r.Context()) == 0 {
			writeError(w, http.StatusConflict, "no active house selected")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin checks that the authenticated user is an admin of the active house.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "authentication required")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
