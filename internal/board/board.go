// Package board composes task definitions with their active request/claim
// state into the display-ready task board. The board holds no state of its
// own; it is recomputed on every read.
package board

import (
	"sort"
	"time"

	"choreboard/internal/intent"
	"choreboard/internal/model"
	"choreboard/internal/store"
	"choreboard/internal/task"
)

// Entry is one task on the board together with everything the presentation
// layer needs to render it: the effective value under cool-off and the ids
// behind any outstanding request or claim.
type Entry struct {
	model.Task
	CurrentValue  int        `json:"current_value"`
	CoolOffActive bool       `json:"cool_off_active"`
	CoolOffEnds   *time.Time `json:"cool_off_ends"`
	RequestID     *int64     `json:"request_id"`
	RequesterID   *int64     `json:"requester_id"`
	ClaimID       *int64     `json:"claim_id"`
	ClaimerID     *int64     `json:"claimer_id"`
}

// HasUserRequested reports whether the outstanding request belongs to userID.
func (e Entry) HasUserRequested(userID int64) bool {
	return e.RequesterID != nil && *e.RequesterID == userID
}

// HasUserClaimed reports whether the outstanding claim belongs to userID.
func (e Entry) HasUserClaimed(userID int64) bool {
	return e.ClaimerID != nil && *e.ClaimerID == userID
}

// HasOtherUserClaimed reports whether someone other than userID holds the claim.
func (e Entry) HasOtherUserClaimed(userID int64) bool {
	return e.ClaimerID != nil && *e.ClaimerID != userID
}

// Assembler builds per-house boards from the task registry and the intent
// tracker.
type Assembler struct {
	tasks   *store.TaskStore
	intents *store.IntentStore
}

func NewAssembler(ts *store.TaskStore, is *store.IntentStore) *Assembler {
	return &Assembler{tasks: ts, intents: is}
}

// Build fetches the house's tasks and surviving intents and assembles the
// board. Stale intents are swept by the store before they reach Assemble.
func (a *Assembler) Build(houseID int64, now time.Time) ([]Entry, error) {
	tasks, err := a.tasks.ListByHouse(houseID)
	if err != nil {
		return nil, err
	}
	requests, err := a.intents.ActiveRequests(houseID, now)
	if err != nil {
		return nil, err
	}
	claims, err := a.intents.ActiveClaims(houseID, now)
	if err != nil {
		return nil, err
	}
	return Assemble(tasks, requests, claims, now), nil
}

// Assemble indexes intents by task (last one wins if duplicates slipped in)
// and orders the board so that tasks someone asked for but nobody has taken
// sort first. The sort is stable; everything else keeps registry order.
// Intents are re-swept here so a caller handing in raw rows cannot surface
// an aged-out request or claim.
func Assemble(tasks []model.Task, requests []model.TaskRequest, claims []model.TaskClaim, now time.Time) []Entry {
	requests = intent.Sweep(requests, now)
	claims = intent.Sweep(claims, now)

	reqByTask := make(map[int64]model.TaskRequest, len(requests))
	for _, r := range requests {
		reqByTask[r.TaskID] = r
	}
	claimByTask := make(map[int64]model.TaskClaim, len(claims))
	for _, c := range claims {
		claimByTask[c.TaskID] = c
	}

	entries := make([]Entry, 0, len(tasks))
	for _, t := range tasks {
		e := Entry{
			Task:          t,
			CurrentValue:  task.CurrentValue(t, now),
			CoolOffActive: task.CoolOffActive(t, now),
			CoolOffEnds:   task.CoolOffEnds(t, now),
		}
		if r, ok := reqByTask[t.ID]; ok {
			id, userID := r.ID, r.UserID
			e.RequestID, e.RequesterID = &id, &userID
		}
		if c, ok := claimByTask[t.ID]; ok {
			id, userID := c.ID, c.UserID
			e.ClaimID, e.ClaimerID = &id, &userID
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return wanted(entries[i]) && !wanted(entries[j])
	})
	return entries
}

// wanted means requested but not yet claimed: the tasks the board surfaces.
func wanted(e Entry) bool {
	return e.RequestID != nil && e.ClaimID == nil
}
