package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"choreboard/internal/board"
	"choreboard/internal/clock"
	"choreboard/internal/email"
	"choreboard/internal/handler"
	"choreboard/internal/imagestore"
	"choreboard/internal/middleware"
	"choreboard/internal/store"
)

type Server struct {
	db          *sql.DB
	authH       *handler.AuthHandler
	houseH      *handler.HouseHandler
	taskH       *handler.TaskHandler
	shameH      *handler.ShameHandler
	sessions    *store.SessionStore
	houses      *store.HouseStore
	rateLimiter *middleware.RateLimiter
	clk         clock.Clock
	logger      *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, images *imagestore.Store, clk clock.Clock, logger *slog.Logger) *Server {
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	resetStore := store.NewPasswordResetStore(db)
	houseStore := store.NewHouseStore(db)
	taskStore := store.NewTaskStore(db)
	logStore := store.NewTaskLogStore(db)
	intentStore := store.NewIntentStore(db)
	shameStore := store.NewShameStore(db)

	assembler := board.NewAssembler(taskStore, intentStore)

	return &Server{
		db:          db,
		authH:       handler.NewAuthHandler(userStore, sessionStore, resetStore, emailClient, clk, logger.With("component", "auth")),
		houseH:      handler.NewHouseHandler(houseStore, sessionStore, logStore, logger.With("component", "house")),
		taskH:       handler.NewTaskHandler(taskStore, logStore, intentStore, assembler, clk, logger.With("component", "task")),
		shameH:      handler.NewShameHandler(shameStore, images, clk, logger.With("component", "shame")),
		sessions:    sessionStore,
		houses:      houseStore,
		rateLimiter: middleware.NewRateLimiter(),
		clk:         clk,
		logger:      logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessions
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/password-reset", s.rateLimitedHandler(s.authH.RequestPasswordReset))
	outerMux.HandleFunc("POST /api/password-reset/confirm", s.rateLimitedHandler(s.authH.ConfirmPasswordReset))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessions, s.houses, s.clk)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	// House management works without an active house selected.
	mux.HandleFunc("GET /api/houses", s.houseH.Mine)
	mux.HandleFunc("POST /api/houses", s.houseH.Create)
	mux.HandleFunc("POST /api/houses/join", s.houseH.Join)
	mux.HandleFunc("POST /api/houses/switch", s.houseH.Switch)

	// Everything below acts on the session's active house.
	mux.Handle("GET /api/members", s.house(s.houseH.Members))
	mux.Handle("GET /api/points", s.house(s.houseH.Points))

	mux.Handle("GET /api/tasks", s.house(s.taskH.Board))
	mux.Handle("POST /api/tasks", s.house(s.taskH.Create))
	mux.Handle("POST /api/tasks/{id}/complete", s.house(s.taskH.Complete))
	mux.Handle("POST /api/tasks/{id}/request", s.house(s.taskH.Request))
	mux.Handle("POST /api/tasks/{id}/claim", s.house(s.taskH.Claim))

	mux.Handle("GET /api/log", s.house(s.taskH.Log))
	mux.Handle("DELETE /api/log/{id}", s.house(s.taskH.DeleteCompletion))

	mux.Handle("GET /api/shame", s.house(s.shameH.List))
	mux.Handle("POST /api/shame", s.house(s.shameH.Create))
	mux.Handle("POST /api/shame/{id}/disapprove", s.house(s.shameH.Disapprove))
	mux.Handle("GET /api/shame/{id}/image", s.house(s.shameH.Image))
	mux.Handle("DELETE /api/shame/{id}", s.house(s.shameH.Delete))

	// Admin-only routes
	mux.Handle("DELETE /api/tasks/{id}", s.admin(s.taskH.Delete))
	mux.Handle("GET /api/invites", s.admin(s.houseH.Invites))
	mux.Handle("POST /api/invites/{id}", s.admin(s.houseH.RespondInvite))
	mux.Handle("DELETE /api/members/{id}", s.admin(s.houseH.RemoveMember))
}

func (s *Server) house(h http.HandlerFunc) http.Handler {
	return middleware.RequireHouse(h)
}

func (s *Server) admin(h http.HandlerFunc) http.Handler {
	return middleware.RequireHouse(middleware.RequireAdmin(h))
}
