package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"choreboard/internal/auth"
	"choreboard/internal/board"
	"choreboard/internal/clock"
	"choreboard/internal/model"
	"choreboard/internal/store"
)

const logPageSize = 20

type TaskHandler struct {
	tasks   *store.TaskStore
	logs    *store.TaskLogStore
	intents *store.IntentStore
	boards  *board.Assembler
	clk     clock.Clock
	logger  *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, ls *store.TaskLogStore, is *store.IntentStore, ba *board.Assembler, clk clock.Clock, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: ts, logs: ls, intents: is, boards: ba, clk: clk, logger: logger}
}

type taskRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Value         int    `json:"value"`
	CoolOffPeriod int    `json:"cool_off_period"`
	CoolOffValue  int    `json:"cool_off_value"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Value <= 0 {
		writeError(w, http.StatusBadRequest, "value must be positive")
		return
	}
	if req.CoolOffPeriod < 0 || req.CoolOffValue < 0 {
		writeError(w, http.StatusBadRequest, "cool-off settings must not be negative")
		return
	}

	task, err := h.tasks.Create(auth.HouseID(r.Context()), req.Name, req.Description, req.Value, req.CoolOffPeriod, req.CoolOffValue, h.clk.Now())
	if err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			writeError(w, http.StatusConflict, "a task with that name already exists")
			return
		}
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// Board returns the assembled task board for the active house.
func (h *TaskHandler) Board(w http.ResponseWriter, r *http.Request) {
	entries, err := h.boards.Build(auth.HouseID(r.Context()), h.clk.Now())
	if err != nil {
		h.logger.Error("build board", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build board")
		return
	}
	if entries == nil {
		entries = []board.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	task, err := h.taskInHouse(r, id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := h.tasks.Delete(id); err != nil {
		h.logger.Error("delete task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completeRequest struct {
	RequestID *int64 `json:"request_id"`
	ClaimID   *int64 `json:"claim_id"`
}

// Complete records a completion for the task. Any supplied request or claim
// ids are retired in the same transaction.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req completeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	ac, _ := auth.FromContext(r.Context())
	entry, err := h.logs.RecordCompletion(ac.HouseID, id, ac.UserID, h.clk.Now(), req.RequestID, req.ClaimID)
	if err != nil {
		if errors.Is(err, store.ErrInvalidState) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("record completion", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record completion")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Request files a request intent: the caller wants someone to do this task.
func (h *TaskHandler) Request(w http.ResponseWriter, r *http.Request) {
	h.createIntent(w, r, func(houseID, taskID, userID int64) (any, error) {
		return h.intents.CreateRequest(houseID, taskID, userID, h.clk.Now())
	})
}

// Claim files a claim intent: the caller promises to do this task.
func (h *TaskHandler) Claim(w http.ResponseWriter, r *http.Request) {
	h.createIntent(w, r, func(houseID, taskID, userID int64) (any, error) {
		return h.intents.CreateClaim(houseID, taskID, userID, h.clk.Now())
	})
}

func (h *TaskHandler) createIntent(w http.ResponseWriter, r *http.Request, create func(houseID, taskID, userID int64) (any, error)) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	task, err := h.taskInHouse(r, id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create intent")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	ac, _ := auth.FromContext(r.Context())
	intent, err := create(ac.HouseID, id, ac.UserID)
	if err != nil {
		if errors.Is(err, store.ErrInvalidState) {
			writeError(w, http.StatusConflict, "task already has an active intent of that kind")
			return
		}
		h.logger.Error("create intent", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create intent")
		return
	}
	writeJSON(w, http.StatusCreated, intent)
}

// Log returns a page of the house's completion history, newest first.
func (h *TaskHandler) Log(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	entries, err := h.logs.ListByHouse(auth.HouseID(r.Context()), page, logPageSize)
	if err != nil {
		h.logger.Error("list task log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list completions")
		return
	}
	if entries == nil {
		entries = []model.TaskLog{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// DeleteCompletion undoes a logged completion and replays the task's
// completion cache from the remaining history.
func (h *TaskHandler) DeleteCompletion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	entry, err := h.logs.GetByID(id)
	if err != nil {
		h.logger.Error("get completion", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete completion")
		return
	}
	if entry == nil || entry.HouseID != auth.HouseID(r.Context()) {
		writeError(w, http.StatusNotFound, "completion not found")
		return
	}
	if entry.UserID != auth.UserID(r.Context()) && !auth.IsAdmin(r.Context()) {
		writeError(w, http.StatusForbidden, "only the completing user or an admin can undo a completion")
		return
	}

	if err := h.logs.DeleteCompletion(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "completion not found")
			return
		}
		h.logger.Error("delete completion", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete completion")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) taskInHouse(r *http.Request, id int64) (*model.Task, error) {
	task, err := h.tasks.GetByID(id)
	if err != nil {
		return nil, err
	}
	if task == nil || task.HouseID != auth.HouseID(r.Context()) {
		return nil, nil
	}
	return task, nil
}
