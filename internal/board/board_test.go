package board

import (
	"testing"
	"time"

	"choreboard/internal/database"
	"choreboard/internal/model"
	"choreboard/internal/store"
)

var day0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func mkTask(id int64, name string, value int) model.Task {
	return model.Task{ID: id, HouseID: 1, Name: name, Value: value}
}

func mkRequest(id, taskID, userID int64) model.TaskRequest {
	return model.TaskRequest{Intent: model.Intent{ID: id, HouseID: 1, TaskID: taskID, UserID: userID, CreatedAt: day0}}
}

func mkClaim(id, taskID, userID int64) model.TaskClaim {
	return model.TaskClaim{Intent: model.Intent{ID: id, HouseID: 1, TaskID: taskID, UserID: userID, CreatedAt: day0}}
}

func TestAssembleRequestedUnclaimedSortsFirst(t *testing.T) {
	tasks := []model.Task{
		mkTask(1, "Dishes", 10),
		mkTask(2, "Trash", 5),
		mkTask(3, "Vacuum", 8),
	}
	requests := []model.TaskRequest{mkRequest(1, 3, 7)}

	entries := Assemble(tasks, requests, nil, day0)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Name != "Vacuum" {
		t.Errorf("requested-but-unclaimed task should sort first, got %q", entries[0].Name)
	}
	// The rest keep registry order.
	if entries[1].Name != "Dishes" || entries[2].Name != "Trash" {
		t.Errorf("unrequested tasks out of order: %q, %q", entries[1].Name, entries[2].Name)
	}
}

func TestAssembleClaimedRequestNotSurfaced(t *testing.T) {
	tasks := []model.Task{
		mkTask(1, "Dishes", 10),
		mkTask(2, "Trash", 5),
	}
	requests := []model.TaskRequest{mkRequest(1, 2, 7)}
	claims := []model.TaskClaim{mkClaim(1, 2, 8)}

	entries := Assemble(tasks, requests, claims, day0)
	// Trash is requested but also claimed, so it stays in registry order.
	if entries[0].Name != "Dishes" {
		t.Errorf("claimed task should not jump the queue, got %q first", entries[0].Name)
	}
	trash := entries[1]
	if trash.RequestID == nil || trash.ClaimID == nil {
		t.Fatal("entry should carry both the request and the claim")
	}
	if !trash.HasUserRequested(7) || !trash.HasUserClaimed(8) {
		t.Error("ownership helpers disagree with the intents")
	}
	if !trash.HasOtherUserClaimed(7) || trash.HasOtherUserClaimed(8) {
		t.Error("HasOtherUserClaimed should be true only for non-claimers")
	}
}

func TestAssembleLastIntentWins(t *testing.T) {
	tasks := []model.Task{mkTask(1, "Dishes", 10)}
	requests := []model.TaskRequest{
		mkRequest(1, 1, 7),
		mkRequest(2, 1, 9),
	}

	entries := Assemble(tasks, requests, nil, day0)
	e := entries[0]
	if e.RequestID == nil || *e.RequestID != 2 {
		t.Fatalf("expected the later request to win, got %v", e.RequestID)
	}
	if e.RequesterID == nil || *e.RequesterID != 9 {
		t.Fatalf("requester = %v, want 9", e.RequesterID)
	}
}

func TestAssembleCoolOffFields(t *testing.T) {
	completed := day0.Add(-12 * time.Hour)
	cooled := model.Task{
		ID: 1, HouseID: 1, Name: "Dishes", Value: 10,
		CoolOffPeriod: 1, CoolOffValue: 3,
		LastCompletedAt: &completed,
	}
	fresh := mkTask(2, "Trash", 5)

	entries := Assemble([]model.Task{cooled, fresh}, nil, nil, day0)

	if !entries[0].CoolOffActive || entries[0].CurrentValue != 3 {
		t.Errorf("cooled task: active=%v value=%d, want true/3", entries[0].CoolOffActive, entries[0].CurrentValue)
	}
	if entries[0].CoolOffEnds == nil || !entries[0].CoolOffEnds.Equal(completed.Add(24*time.Hour)) {
		t.Errorf("cool-off end = %v, want %v", entries[0].CoolOffEnds, completed.Add(24*time.Hour))
	}
	if entries[1].CoolOffActive || entries[1].CurrentValue != 5 || entries[1].CoolOffEnds != nil {
		t.Error("never-completed task should carry its full value and no window")
	}
}

func TestAssembleDropsStaleIntents(t *testing.T) {
	tasks := []model.Task{mkTask(1, "Dishes", 10), mkTask(2, "Trash", 5)}

	old := mkRequest(1, 1, 7)
	old.CreatedAt = day0.Add(-25 * time.Hour)
	requests := []model.TaskRequest{old}

	flagged := mkClaim(1, 2, 8)
	flagged.Expired = true
	claims := []model.TaskClaim{flagged}

	entries := Assemble(tasks, requests, claims, day0)
	if entries[0].RequestID != nil || entries[1].RequestID != nil {
		t.Error("aged-out request should not surface on the board")
	}
	if entries[0].ClaimID != nil || entries[1].ClaimID != nil {
		t.Error("expired-flagged claim should not surface on the board")
	}
	// With no live request the registry order holds.
	if entries[0].Name != "Dishes" {
		t.Errorf("expected registry order, got %q first", entries[0].Name)
	}
}

func TestAssembleEmptyHouse(t *testing.T) {
	entries := Assemble(nil, nil, nil, day0)
	if len(entries) != 0 {
		t.Fatalf("expected empty board, got %d entries", len(entries))
	}
}

// TestBuildAfterClaimedCompletion walks the whole flow: one user requests a
// task, another claims it and completes it. The completion retires the claim
// but the request stays open, so the rebuilt board shows the task with no
// claimer and the original request still outstanding.
func TestBuildAfterClaimedCompletion(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	us := store.NewUserStore(db)
	carol, err := us.Create("carol", "carol@example.com", "x")
	if err != nil {
		t.Fatalf("create carol: %v", err)
	}
	dave, _ := us.Create("dave", "dave@example.com", "x")

	hs := store.NewHouseStore(db)
	house, err := hs.Create("Hill St", carol.ID)
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	hs.AddMember(house.ID, dave.ID, "member")

	ts := store.NewTaskStore(db)
	trash, err := ts.Create(house.ID, "Trash", "", 5, 1, 1, day0)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	is := store.NewIntentStore(db)
	req, err := is.CreateRequest(house.ID, trash.ID, carol.ID, day0)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	claim, err := is.CreateClaim(house.ID, trash.ID, dave.ID, day0.Add(time.Hour))
	if err != nil {
		t.Fatalf("create claim: %v", err)
	}

	ls := store.NewTaskLogStore(db)
	done := day0.Add(2 * time.Hour)
	if _, err := ls.RecordCompletion(house.ID, trash.ID, dave.ID, done, nil, &claim.ID); err != nil {
		t.Fatalf("record completion: %v", err)
	}

	entries, err := NewAssembler(ts, is).Build(house.ID, done.Add(time.Minute))
	if err != nil {
		t.Fatalf("build board: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ClaimID != nil {
		t.Error("claim should be retired by the completion")
	}
	if e.RequestID == nil || *e.RequestID != req.ID {
		t.Errorf("carol's request should survive, got %v", e.RequestID)
	}
	if !e.CoolOffActive || e.CurrentValue != 1 {
		t.Errorf("task just completed: active=%v value=%d, want true/1", e.CoolOffActive, e.CurrentValue)
	}
}
