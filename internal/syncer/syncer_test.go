package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/seibert-lab/cura/internal/entity"
	"github.com/seibert-lab/cura/internal/notify"
	"github.com/seibert-lab/cura/internal/study"
)

// fakeResource scripts persistence responses for one entity kind.
type fakeResource struct {
	readResp  study.Study
	readErr   error
	updateFn  func(id string, partial any) (study.Study, error)
	updates   []any
	deleteErr error
	deleted   []string
}

func (f *fakeResource) Read(ctx context.Context, id string) (study.Study, error) {
	return f.readResp, f.readErr
}

func (f *fakeResource) Update(ctx context.Context, id string, partial any) (study.Study, error) {
	f.updates = append(f.updates, partial)
	if f.updateFn != nil {
		return f.updateFn(id, partial)
	}
	return partial.(study.Study), nil
}

func (f *fakeResource) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func baseStudy() study.Study {
	return study.Study{ID: "st-1", Title: "Original", Year: 2019}
}

func TestRequestSave_CleanStoreIsNoop(t *testing.T) {
	res := &fakeResource{}
	c := New[study.Study](res, "studies", nil, nil, nil)

	store := entity.NewStore[study.Study]()
	store.Load(baseStudy())

	if err := c.RequestSave(context.Background(), store, "st-1"); err != nil {
		t.Fatalf("RequestSave() error = %v", err)
	}
	if len(res.updates) != 0 {
		t.Errorf("clean store issued %d updates, want 0", len(res.updates))
	}
}

func TestRequestSave_PushesLocalAndMarksSaved(t *testing.T) {
	hub := notify.NewHub()
	var events []notify.Event
	hub.Subscribe(func(e notify.Event) { events = append(events, e) })

	res := &fakeResource{}
	c := New[study.Study](res, "studies", nil, hub, nil)

	store := entity.NewStore[study.Study]()
	store.Load(baseStudy())
	if err := store.ApplyLocalEdit(entity.Patch{"title": "Edited"}); err != nil {
		t.Fatal(err)
	}

	if err := c.RequestSave(context.Background(), store, "st-1"); err != nil {
		t.Fatalf("RequestSave() error = %v", err)
	}

	if store.Edited() {
		t.Error("Edited() = true after successful save")
	}
	remote, _ := store.Remote()
	if remote.Title != "Edited" {
		t.Errorf("remote title = %q", remote.Title)
	}
	if len(res.updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(res.updates))
	}
	sent := res.updates[0].(study.Study)
	if sent.Title != "Edited" {
		t.Errorf("pushed title = %q", sent.Title)
	}
	if len(events) != 1 || events[0].Kind != "save.completed" {
		t.Errorf("events = %v", events)
	}
}

func TestRequestSave_FailurePreservesEdits(t *testing.T) {
	hub := notify.NewHub()
	var events []notify.Event
	hub.Subscribe(func(e notify.Event) { events = append(events, e) })

	netErr := errors.New("persistence service unavailable")
	res := &fakeResource{updateFn: func(string, any) (study.Study, error) {
		return study.Study{}, netErr
	}}
	c := New[study.Study](res, "studies", nil, hub, nil)

	store := entity.NewStore[study.Study]()
	store.Load(baseStudy())
	if err := store.ApplyLocalEdit(entity.Patch{"title": "Edited"}); err != nil {
		t.Fatal(err)
	}

	err := c.RequestSave(context.Background(), store, "st-1")
	if !errors.Is(err, netErr) {
		t.Fatalf("error = %v, want wrapped %v", err, netErr)
	}

	if !store.Edited() {
		t.Error("failed save dropped local edits")
	}
	local, _ := store.Local()
	if local.Title != "Edited" {
		t.Errorf("local title = %q after failure", local.Title)
	}
	remote, _ := store.Remote()
	if remote.Title != "Original" {
		t.Errorf("remote title = %q after failure", remote.Title)
	}
	if !errors.Is(store.Err(), netErr) {
		t.Errorf("store.Err() = %v", store.Err())
	}
	if len(events) != 1 || events[0].Level != notify.LevelError {
		t.Errorf("events = %v, want one error event", events)
	}
}

func TestRequestSave_SupersedingSave_LastCompletionWins(t *testing.T) {
	// Two saves for the same store complete in issue order; the second
	// completion replaces the remote snapshot and the dirty flag is
	// recomputed against it.
	responses := []study.Study{
		{ID: "st-1", Title: "First response", Year: 2019},
		{ID: "st-1", Title: "Second response", Year: 2019},
	}
	i := 0
	res := &fakeResource{updateFn: func(string, any) (study.Study, error) {
		out := responses[i]
		i++
		return out, nil
	}}
	c := New[study.Study](res, "studies", nil, nil, nil)

	store := entity.NewStore[study.Study]()
	store.Load(baseStudy())

	if err := store.ApplyLocalEdit(entity.Patch{"title": "First response"}); err != nil {
		t.Fatal(err)
	}
	if err := c.RequestSave(context.Background(), store, "st-1"); err != nil {
		t.Fatal(err)
	}

	// An edit lands between the two saves.
	if err := store.ApplyLocalEdit(entity.Patch{"title": "Second response"}); err != nil {
		t.Fatal(err)
	}
	if err := c.RequestSave(context.Background(), store, "st-1"); err != nil {
		t.Fatal(err)
	}

	remote, _ := store.Remote()
	if remote.Title != "Second response" {
		t.Errorf("remote title = %q, want the later-completing response", remote.Title)
	}
	if store.Edited() {
		t.Error("Edited() = true after the final save matched local")
	}
}

func TestRequestRefresh_LoadsWhenClean(t *testing.T) {
	refreshed := baseStudy()
	refreshed.Title = "Refreshed"
	res := &fakeResource{readResp: refreshed}
	c := New[study.Study](res, "studies", nil, nil, nil)

	store := entity.NewStore[study.Study]()
	store.Load(baseStudy())

	if err := c.RequestRefresh(context.Background(), store, "st-1"); err != nil {
		t.Fatalf("RequestRefresh() error = %v", err)
	}
	local, _ := store.Local()
	if local.Title != "Refreshed" {
		t.Errorf("local title = %q", local.Title)
	}
	if store.Edited() {
		t.Error("Edited() = true after refresh")
	}
}

func TestRequestRefresh_EditConflict(t *testing.T) {
	res := &fakeResource{readResp: baseStudy()}
	c := New[study.Study](res, "studies", nil, nil, nil)

	store := entity.NewStore[study.Study]()
	store.Load(baseStudy())
	if err := store.ApplyLocalEdit(entity.Patch{"title": "Unsaved work"}); err != nil {
		t.Fatal(err)
	}

	err := c.RequestRefresh(context.Background(), store, "st-1")
	if !errors.Is(err, ErrEditConflict) {
		t.Fatalf("error = %v, want ErrEditConflict", err)
	}

	// Local edits survive untouched.
	local, _ := store.Local()
	if local.Title != "Unsaved work" {
		t.Errorf("local title = %q after refused refresh", local.Title)
	}
	if !store.Edited() {
		t.Error("Edited() flag lost")
	}
}

func TestRequestRefresh_ReadFailure(t *testing.T) {
	readErr := errors.New("boom")
	res := &fakeResource{readErr: readErr}
	c := New[study.Study](res, "studies", nil, nil, nil)

	store := entity.NewStore[study.Study]()
	store.Load(baseStudy())

	if err := c.RequestRefresh(context.Background(), store, "st-1"); !errors.Is(err, readErr) {
		t.Fatalf("error = %v, want wrapped %v", err, readErr)
	}
	local, _ := store.Local()
	if local.Title != "Original" {
		t.Errorf("local changed after failed refresh: %q", local.Title)
	}
}

func TestRequestDelete_MarksCollectionStale(t *testing.T) {
	inv := NewInvalidations()
	res := &fakeResource{}
	c := New[study.Study](res, "studies", inv, nil, nil)

	if err := c.RequestDelete(context.Background(), "st-1"); err != nil {
		t.Fatalf("RequestDelete() error = %v", err)
	}
	if len(res.deleted) != 1 || res.deleted[0] != "st-1" {
		t.Errorf("deleted = %v", res.deleted)
	}
	if !inv.Stale("studies") {
		t.Error("collection not marked stale after delete")
	}

	inv.Clear("studies")
	if inv.Stale("studies") {
		t.Error("Clear() did not reset staleness")
	}
}

func TestRequestDelete_FailureLeavesCollectionFresh(t *testing.T) {
	inv := NewInvalidations()
	res := &fakeResource{deleteErr: errors.New("rejected")}
	c := New[study.Study](res, "studies", inv, nil, nil)

	if err := c.RequestDelete(context.Background(), "st-1"); err == nil {
		t.Fatal("RequestDelete() should propagate the failure")
	}
	if inv.Stale("studies") {
		t.Error("failed delete marked the collection stale")
	}
}
