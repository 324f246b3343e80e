package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"choreboard/internal/auth"
	"choreboard/internal/model"
	"choreboard/internal/store"
)

type HouseHandler struct {
	houses   *store.HouseStore
	sessions *store.SessionStore
	logs     *store.TaskLogStore
	logger   *slog.Logger
}

func NewHouseHandler(hs *store.HouseStore, ss *store.SessionStore, ls *store.TaskLogStore, logger *slog.Logger) *HouseHandler {
	return &HouseHandler{houses: hs, sessions: ss, logs: ls, logger: logger}
}

type houseRequest struct {
	Name string `json:"name"`
}

// Create makes a new house with the caller as admin and switches the
// session to it.
func (h *HouseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req houseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	house, err := h.houses.Create(req.Name, ac.UserID)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			writeError(w, http.StatusConflict, "a house with that name already exists")
			return
		}
		h.logger.Error("create house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create house")
		return
	}

	if err := h.sessions.SetActiveHouse(ac.SessionID, &house.ID); err != nil {
		h.logger.Warn("set active house", "error", err)
	}
	writeJSON(w, http.StatusCreated, house)
}

// Mine lists the houses the caller belongs to.
func (h *HouseHandler) Mine(w http.ResponseWriter, r *http.Request) {
	houses, err := h.houses.ListHousesForUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list houses", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list houses")
		return
	}
	if houses == nil {
		houses = []model.House{}
	}
	writeJSON(w, http.StatusOK, houses)
}

type switchRequest struct {
	HouseID int64 `json:"house_id"`
}

// Switch changes the session's active house after checking membership.
func (h *HouseHandler) Switch(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	member, err := h.houses.GetMember(req.HouseID, ac.UserID)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to switch house")
		return
	}
	if member == nil {
		writeError(w, http.StatusForbidden, "not a member of that house")
		return
	}

	if err := h.sessions.SetActiveHouse(ac.SessionID, &req.HouseID); err != nil {
		h.logger.Error("set active house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to switch house")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Join files a membership request against a house by name.
func (h *HouseHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req houseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	house, err := h.houses.GetByName(strings.TrimSpace(req.Name))
	if err != nil {
		h.logger.Error("lookup house", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join house")
		return
	}
	if house == nil {
		writeError(w, http.StatusNotFound, "house not found")
		return
	}

	userID := auth.UserID(r.Context())
	if member, err := h.houses.GetMember(house.ID, userID); err == nil && member != nil {
		writeError(w, http.StatusConflict, "already a member")
		return
	}

	invite, err := h.houses.CreateInvite(house.ID, userID)
	if err != nil {
		if errors.Is(err, store.ErrInvalidState) {
			writeError(w, http.StatusConflict, "a join request is already pending")
			return
		}
		h.logger.Error("create invite", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join house")
		return
	}
	writeJSON(w, http.StatusCreated, invite)
}

// Members lists the active house's membership.
func (h *HouseHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.houses.ListMembers(auth.HouseID(r.Context()))
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Membership{}
	}
	writeJSON(w, http.StatusOK, members)
}

// Points returns the active house's scoreboard, highest first.
func (h *HouseHandler) Points(w http.ResponseWriter, r *http.Request) {
	points, err := h.logs.PointsAllUsers(auth.HouseID(r.Context()))
	if err != nil {
		h.logger.Error("scoreboard", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load scoreboard")
		return
	}
	if points == nil {
		points = []model.UserPoints{}
	}
	writeJSON(w, http.StatusOK, points)
}

// Invites lists pending join requests for the active house. Admin only.
func (h *HouseHandler) Invites(w http.ResponseWriter, r *http.Request) {
	invites, err := h.houses.ListPendingInvites(auth.HouseID(r.Context()))
	if err != nil {
		h.logger.Error("list invites", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list invites")
		return
	}
	if invites == nil {
		invites = []model.Invite{}
	}
	writeJSON(w, http.StatusOK, invites)
}

type respondInviteRequest struct {
	Accept bool `json:"accept"`
}

// RespondInvite accepts or declines a pending join request. Admin only.
func (h *HouseHandler) RespondInvite(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req respondInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	// Only invites aimed at the active house may be answered here.
	invites, err := h.houses.ListPendingInvites(auth.HouseID(r.Context()))
	if err != nil {
		h.logger.Error("list invites", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to respond")
		return
	}
	found := false
	for _, inv := range invites {
		if inv.ID == id {
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "invite not found")
		return
	}

	if err := h.houses.RespondInvite(id, req.Accept); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidState) {
			writeError(w, http.StatusNotFound, "invite not found")
			return
		}
		h.logger.Error("respond invite", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to respond")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember kicks a user out of the active house. Admin only.
func (h *HouseHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	if id == ac.UserID {
		writeError(w, http.StatusBadRequest, "cannot remove yourself")
		return
	}

	if err := h.houses.RemoveMember(ac.HouseID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "member not found")
			return
		}
		h.logger.Error("remove member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
