package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harrisonrobin/nextup/pkg/activity"
	"github.com/harrisonrobin/nextup/pkg/kvstore"
	"github.com/harrisonrobin/nextup/pkg/model"
	"github.com/harrisonrobin/nextup/pkg/notify"
	"github.com/harrisonrobin/nextup/pkg/ordering"
	"github.com/harrisonrobin/nextup/pkg/reconcile"
	"github.com/harrisonrobin/nextup/pkg/todoist"
)

var now = time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu       sync.Mutex
	tasks    []*model.Task
	contexts []model.Context
	tz       string
	closed   []string
	updates  map[string]model.Due
	closeErr error
	calls    int
}

func (f *fakeAPI) User(ctx context.Context) (todoist.User, error) {
	var u todoist.User
	err := json.Unmarshal([]byte(`{"id": "u", "tz_info": {"timezone": "`+f.tz+`"}}`), &u)
	return u, err
}

func (f *fakeAPI) Tasks(ctx context.Context) ([]*model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.tasks, nil
}

func (f *fakeAPI) Projects(ctx context.Context) ([]model.Context, error) {
	return f.contexts, nil
}

func (f *fakeAPI) SetLocation(loc *time.Location) {}

func (f *fakeAPI) Comments(ctx context.Context, taskID string) ([]model.Comment, error) {
	return nil, nil
}

func (f *fakeAPI) Activities(ctx context.Context, q activity.Query) (activity.Page, error) {
	return activity.Page{}, nil
}

func (f *fakeAPI) CloseTask(ctx context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, taskID)
	return f.closeErr
}

func (f *fakeAPI) UpdateDue(ctx context.Context, taskID string, due *model.Due) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = make(map[string]model.Due)
	}
	f.updates[taskID] = *due
	return nil
}

func newFixture(t *testing.T) (*App, *fakeAPI, *kvstore.Store) {
	t.Helper()
	kv, err := kvstore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })

	api := &fakeAPI{
		tz:       "UTC",
		contexts: []model.Context{{ID: "p1", Name: "Home", ChildOrder: 1}},
		tasks: []*model.Task{
			{ID: "1", Content: "Water plants", Priority: 4, ContextID: "p1",
				Due: &model.Due{Kind: model.DueDateTime, Date: "2024-06-11", Datetime: "2024-06-11T09:00:00"}},
			{ID: "2", Content: "Read", Priority: 1, Due: &model.Due{Date: "2024-06-12"}},
			{ID: "3", Content: "Dentist", Priority: 4, Due: &model.Due{Date: "2024-06-13"}},
		},
	}
	a := New(api, kv, Options{Now: func() time.Time { return now }, Notifier: notify.Discard{}})
	t.Cleanup(a.Selector.Wait)
	return a, api, kv
}

func TestRefreshSweepsAndSelects(t *testing.T) {
	a, api, _ := newFixture(t)

	d, err := a.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if d.Task == nil || d.Task.ID != "1" {
		t.Fatalf("Expected task 1 selected, got %+v", d.Task)
	}
	if a.Store.Location().String() != "UTC" {
		t.Errorf("Expected UTC, got %s", a.Store.Location())
	}

	moved, ok := api.updates["1"]
	if !ok || moved.Datetime != "2024-06-12T09:00:00" {
		t.Errorf("Expected stale task moved onto today, got %+v", moved)
	}
	if _, ok := api.updates["2"]; ok {
		t.Errorf("Task due today should not be swept")
	}

	due := a.Due()
	if len(due) != 2 || due[0].ID != "1" || due[1].ID != "2" {
		t.Errorf("Unexpected due list %v", ids(due))
	}
	upcoming := a.Upcoming()
	if len(upcoming) != 3 {
		t.Errorf("Expected all three tasks upcoming, got %v", ids(upcoming))
	}
	if agenda := a.Agenda(ordering.TodayHash); len(agenda) != 1 || agenda[0].ID != "1" {
		t.Errorf("Unexpected agenda %v", ids(agenda))
	}
}

func TestOfflineCache(t *testing.T) {
	a, api, kv := newFixture(t)
	if _, err := a.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := a.SelectContext(context.Background(), "p1"); err != nil {
		t.Fatal(err)
	}

	offline := New(api, kv, Options{Now: func() time.Time { return now }, Notifier: notify.Discard{}})
	t.Cleanup(offline.Selector.Wait)
	if err := offline.LoadCache(context.Background()); err != nil {
		t.Fatalf("LoadCache failed: %v", err)
	}
	if api.calls != 1 {
		t.Errorf("Loading the cache should not fetch, got %d calls", api.calls)
	}
	if offline.Store.Location().String() != "UTC" {
		t.Errorf("Expected the cached timezone, got %s", offline.Store.Location())
	}
	cur := offline.Current()
	if cur == nil || cur.ID != "1" {
		t.Errorf("Expected cached task 1, got %+v", cur)
	}
	if got := offline.Store.Snapshot().SelectedContext; got != "p1" {
		t.Errorf("Expected persisted context filter, got %q", got)
	}
}

func TestDoneAndDefer(t *testing.T) {
	a, api, kv := newFixture(t)
	ctx := context.Background()
	if _, err := a.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	if res := a.Done(ctx, "1"); res.Status != reconcile.StatusSuccess {
		t.Fatalf("Done failed: %v", res.Err)
	}
	if len(api.closed) != 1 || api.closed[0] != "1" {
		t.Errorf("Expected task 1 closed, got %v", api.closed)
	}
	if cur := a.Current(); cur == nil || cur.ID != "2" {
		t.Errorf("Expected task 2 next, got %+v", cur)
	}
	cache, err := kv.LoadCache()
	if err != nil {
		t.Fatal(err)
	}
	if len(cache.Activity) != 1 || !cache.Activity[0].IsTemporary() {
		t.Errorf("Expected a persisted temporary completion, got %+v", cache.Activity)
	}

	if res := a.DeferButton(ctx, "2", "1 hr"); res.Status != reconcile.StatusSuccess {
		t.Fatalf("DeferButton failed: %v", res.Err)
	}
	if got := api.updates["2"]; got.Datetime != "2024-06-12T13:00:00" {
		t.Errorf("Expected task 2 at 13:00, got %+v", got)
	}
	if cur := a.Current(); cur != nil {
		t.Errorf("Expected nothing due, got %+v", cur)
	}

	if res := a.DeferButton(ctx, "2", "7 min"); !errors.Is(res.Err, ErrUnknownButton) {
		t.Errorf("Expected an unknown button error")
	}
	if _, err := a.Buttons("missing"); !errors.Is(err, ErrNoTask) {
		t.Errorf("Expected ErrNoTask, got %v", err)
	}
}

func TestDoneReportsCloseFailure(t *testing.T) {
	a, api, _ := newFixture(t)
	ctx := context.Background()
	if _, err := a.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	api.closeErr = errors.New("offline")

	res := a.Done(ctx, "1")
	if res.Status != reconcile.StatusError || !errors.Is(res.Err, api.closeErr) {
		t.Errorf("Expected close failure, got %+v", res)
	}
	if cur := a.Current(); cur == nil || cur.ID != "2" {
		t.Errorf("Expected the local move to stay applied, got %+v", cur)
	}
}

func TestActivityLog(t *testing.T) {
	a, _, _ := newFixture(t)
	ctx := context.Background()
	if _, err := a.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	a.Done(ctx, "1")

	log, err := a.ActivityLog(ctx, activity.LastYear(now), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 || log[0].TaskID != "1" {
		t.Errorf("Expected the local completion, got %+v", log)
	}
}

func ids(tasks []*model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestLogout(t *testing.T) {
	a, _, kv := newFixture(t)
	if err := kv.SetToken("secret"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	a.Selector.Wait()

	if err := a.Logout(); err != nil {
		t.Fatal(err)
	}
	if len(a.Store.Snapshot().Tasks) != 0 || a.Current() != nil {
		t.Errorf("Expected held data dropped")
	}
	if tok, _ := kv.Token(); tok != "" {
		t.Errorf("Expected token removed, got %q", tok)
	}
	if c, _ := kv.LoadCache(); len(c.Tasks) != 0 {
		t.Errorf("Expected cache removed")
	}
}
