package dashboard

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/augmentum/backend/internal/export"
	"github.com/augmentum/backend/internal/model"
	"github.com/augmentum/backend/internal/repository"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

// storeNow is the fake store's clock; it deliberately differs from now.
var storeNow = now.Add(1500 * time.Millisecond)

// ---------------------------------------------------------------------------
// fakeSource — in-memory contact store
// ---------------------------------------------------------------------------

type fakeSource struct {
	mu        sync.Mutex
	rows      []*model.ContactMessage
	listErr   error
	updateErr error
	deleteErr error
	subErr    error

	listCalls   int
	updateCalls int
	deleteCalls int

	onChange     func()
	subscribed   chan struct{}
	unsubscribed bool
}

func newFakeSource(rows ...*model.ContactMessage) *fakeSource {
	return &fakeSource{rows: rows, subscribed: make(chan struct{})}
}

func (f *fakeSource) List(ctx context.Context) ([]*model.ContactMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*model.ContactMessage, len(f.rows))
	for i, m := range f.rows {
		out[i] = m.Clone()
	}
	return out, nil
}

func (f *fakeSource) UpdateStatus(ctx context.Context, id string, status model.Status) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return time.Time{}, f.updateErr
	}
	for _, m := range f.rows {
		if m.ID == id {
			at := storeNow
			m.Status = status
			m.UpdatedAt = &at
			return at, nil
		}
	}
	return time.Time{}, repository.ErrNotFound
}

func (f *fakeSource) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, m := range f.rows {
		if m.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeSource) Subscribe(ctx context.Context, onChange func()) (repository.Unsubscribe, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.mu.Lock()
	f.onChange = onChange
	f.mu.Unlock()
	close(f.subscribed)
	return func() {
		f.mu.Lock()
		f.unsubscribed = true
		f.mu.Unlock()
	}, nil
}

func (f *fakeSource) insert(m *model.ContactMessage) {
	f.mu.Lock()
	f.rows = append([]*model.ContactMessage{m}, f.rows...)
	f.mu.Unlock()
}

func row(id, name string, status model.Status, age time.Duration) *model.ContactMessage {
	return &model.ContactMessage{
		ID: id, Name: name, Email: name + "@example.com", Message: "hello from " + name,
		Status: status, CreatedAt: now.Add(-age),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newReady(t *testing.T, src *fakeSource, opts Options) *Controller {
	t.Helper()
	c := New(src, quietLogger(), func() time.Time { return now }, opts)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c
}

func ids(msgs []*model.ContactMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func TestController_StartsLoadingThenReady(t *testing.T) {
	src := newFakeSource(row("1", "ann", model.StatusNew, time.Hour))
	c := New(src, quietLogger(), nil, Options{})
	if c.State() != StateLoading {
		t.Fatalf("expected loading before Init, got %s", c.State())
	}
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	snap := c.Snapshot()
	if snap.State != StateReady {
		t.Errorf("expected ready, got %s", snap.State)
	}
	if diff := cmp.Diff([]string{"1"}, ids(snap.Messages)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.DefaultViewParams(), snap.Params); diff != "" {
		t.Errorf("default params (-want +got):\n%s", diff)
	}
}

func TestController_InitFailureStillReady(t *testing.T) {
	src := newFakeSource()
	src.listErr = errors.New("network down")
	c := New(src, quietLogger(), nil, Options{})

	if err := c.Init(context.Background()); err == nil {
		t.Fatal("expected Init to report the list error")
	}
	if c.State() != StateReady {
		t.Errorf("expected ready after failed Init, got %s", c.State())
	}
	if len(c.Messages()) != 0 {
		t.Errorf("expected empty collection, got %d", len(c.Messages()))
	}
}

func TestController_OnRemoteChangeIgnoredWhileLoading(t *testing.T) {
	src := newFakeSource(row("1", "ann", model.StatusNew, time.Hour))
	c := New(src, quietLogger(), nil, Options{})
	if err := c.OnRemoteChange(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.listCalls != 0 {
		t.Errorf("expected no list while loading, got %d", src.listCalls)
	}
}

func TestController_OnRemoteChangeReplacesCollection(t *testing.T) {
	src := newFakeSource(row("1", "ann", model.StatusNew, time.Hour))
	c := newReady(t, src, Options{})

	src.insert(row("2", "bob", model.StatusNew, 0))
	if err := c.OnRemoteChange(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"2", "1"}, ids(c.Messages())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestController_RefreshFailureKeepsPreviousMessages(t *testing.T) {
	src := newFakeSource(row("1", "ann", model.StatusNew, time.Hour))
	c := newReady(t, src, Options{})

	src.listErr = errors.New("timeout")
	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if diff := cmp.Diff([]string{"1"}, ids(c.Messages())); diff != "" {
		t.Errorf("collection changed on failure (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

func TestController_SelectMessage(t *testing.T) {
	c := newReady(t, newFakeSource(row("1", "ann", model.StatusNew, 0)), Options{})

	if c.SelectMessage("missing") {
		t.Error("selecting an absent id must fail")
	}
	if c.Selected() != nil {
		t.Error("selection must stay empty")
	}
	if !c.SelectMessage("1") {
		t.Fatal("expected selection to succeed")
	}
	if got := c.Selected(); got == nil || got.ID != "1" {
		t.Errorf("expected selected 1, got %+v", got)
	}
	if c.SelectMessage("missing") {
		t.Error("selecting an absent id must fail")
	}
	if got := c.Selected(); got == nil || got.ID != "1" {
		t.Error("failed select must not change the selection")
	}
	c.ClearSelection()
	if c.Selected() != nil {
		t.Error("expected cleared selection")
	}
}

func TestController_SelectionSurvivesRefreshByID(t *testing.T) {
	src := newFakeSource(row("1", "ann", model.StatusNew, 0), row("2", "bob", model.StatusNew, time.Hour))
	c := newReady(t, src, Options{})
	c.SelectMessage("2")

	src.insert(row("3", "cat", model.StatusNew, 0))
	if err := c.OnRemoteChange(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := c.Selected(); got == nil || got.ID != "2" {
		t.Fatalf("expected selection kept, got %+v", got)
	}

	if err := src.Delete(context.Background(), "2"); err != nil {
		t.Fatal(err)
	}
	if err := c.OnRemoteChange(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Selected() != nil {
		t.Error("expected selection cleared once the message disappeared remotely")
	}
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

func TestController_MarkRepliedKeepsIdentity(t *testing.T) {
	orig := row("1", "ann", model.StatusNew, 3*time.Hour)
	c := newReady(t, newFakeSource(orig), Options{})
	c.SelectMessage("1")

	if err := c.MarkReplied(context.Background(), "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := c.Messages()[0]
	if got.Status != model.StatusReplied {
		t.Errorf("expected replied, got %s", got.Status)
	}
	if got.ID != "1" || !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("id/created_at changed: %+v", got)
	}
	if got.UpdatedAt == nil || !got.UpdatedAt.Equal(storeNow) {
		t.Errorf("expected updated_at=%v, got %v", storeNow, got.UpdatedAt)
	}
	if sel := c.Selected(); sel == nil || sel.Status != model.StatusReplied {
		t.Errorf("selected view not updated: %+v", sel)
	}
}

func TestController_SetStatusMatchesStoredTimestamp(t *testing.T) {
	src := newFakeSource(row("1", "ann", model.StatusNew, time.Hour))
	c := newReady(t, src, Options{})

	if err := c.MarkRead(context.Background(), "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	local := c.Messages()[0]

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	stored := c.Messages()[0]
	if diff := cmp.Diff(stored, local); diff != "" {
		t.Errorf("local entry differs from the store after update (-stored +local):\n%s", diff)
	}

	var before, after bytes.Buffer
	_ = export.WriteCSV(&before, []*model.ContactMessage{local})
	_ = export.WriteCSV(&after, []*model.ContactMessage{stored})
	if before.String() != after.String() {
		t.Errorf("export changed after refetch:\n%s\n%s", before.String(), after.String())
	}
}

func TestController_MarkReadFailureLeavesStateUnchanged(t *testing.T) {
	src := newFakeSource(row("1", "ann", model.StatusNew, 0))
	c := newReady(t, src, Options{})
	before := c.Snapshot()

	src.updateErr = errors.New("permission denied")
	if err := c.MarkRead(context.Background(), "1"); err == nil {
		t.Fatal("expected error")
	}
	if diff := cmp.Diff(before, c.Snapshot()); diff != "" {
		t.Errorf("state changed on failure (-before +after):\n%s", diff)
	}
}

func TestController_SetStatusPermissiveByDefault(t *testing.T) {
	c := newReady(t, newFakeSource(row("1", "ann", model.StatusReplied, 0)), Options{})
	if err := c.SetStatus(context.Background(), "1", model.StatusNew); err != nil {
		t.Fatalf("expected replied -> new to be allowed, got %v", err)
	}
	if got := c.Messages()[0].Status; got != model.StatusNew {
		t.Errorf("expected new, got %s", got)
	}
}

func TestController_StrictTransitions(t *testing.T) {
	src := newFakeSource(row("1", "ann", model.StatusReplied, 0), row("2", "bob", model.StatusNew, 0))
	c := newReady(t, src, Options{StrictTransitions: true})

	err := c.SetStatus(context.Background(), "1", model.StatusNew)
	var terr *model.TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if terr.From != model.StatusReplied || terr.To != model.StatusNew {
		t.Errorf("unexpected transition %s -> %s", terr.From, terr.To)
	}
	if src.updateCalls != 0 {
		t.Errorf("store must not be called for an illegal transition, got %d calls", src.updateCalls)
	}

	if err := c.MarkRead(context.Background(), "2"); err != nil {
		t.Errorf("new -> read must be allowed: %v", err)
	}
	if err := c.MarkReplied(context.Background(), "2"); err != nil {
		t.Errorf("read -> replied must be allowed: %v", err)
	}
}

func TestController_SetStatusUnknownLocallyAsksStore(t *testing.T) {
	src := newFakeSource()
	c := newReady(t, src, Options{StrictTransitions: true})
	err := c.MarkRead(context.Background(), "ghost")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound from store, got %v", err)
	}
	if src.updateCalls != 1 {
		t.Errorf("expected store to be asked once, got %d", src.updateCalls)
	}
}

func TestController_DeleteRemovesExactlyOneAndClearsSelection(t *testing.T) {
	src := newFakeSource(
		row("1", "ann", model.StatusNew, 0),
		row("2", "bob", model.StatusRead, time.Hour),
		row("3", "cat", model.StatusReplied, 2*time.Hour),
	)
	c := newReady(t, src, Options{})
	c.SelectMessage("2")

	if err := c.DeleteMessage(context.Background(), "2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "3"}, ids(c.Messages())); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if c.Selected() != nil {
		t.Error("expected selection cleared")
	}
}

func TestController_DeleteOtherKeepsSelection(t *testing.T) {
	c := newReady(t, newFakeSource(row("1", "ann", model.StatusNew, 0), row("2", "bob", model.StatusNew, 0)), Options{})
	c.SelectMessage("1")
	if err := c.DeleteMessage(context.Background(), "2"); err != nil {
		t.Fatal(err)
	}
	if got := c.Selected(); got == nil || got.ID != "1" {
		t.Errorf("expected selection kept, got %+v", got)
	}
}

func TestController_DeleteFailureLeavesStateUnchanged(t *testing.T) {
	src := newFakeSource(row("1", "ann", model.StatusNew, 0))
	c := newReady(t, src, Options{})
	c.SelectMessage("1")
	src.deleteErr = errors.New("offline")

	if err := c.DeleteMessage(context.Background(), "1"); err == nil {
		t.Fatal("expected error")
	}
	if len(c.Messages()) != 1 || c.Selected() == nil {
		t.Error("state changed on failed delete")
	}
}

// ---------------------------------------------------------------------------
// Read side
// ---------------------------------------------------------------------------

func TestController_ReadAccessorsReturnCopies(t *testing.T) {
	c := newReady(t, newFakeSource(row("1", "ann", model.StatusNew, 0)), Options{})
	c.Messages()[0].Status = model.StatusReplied
	c.View(model.DefaultViewParams())[0].Name = "mallory"
	if got := c.Messages()[0]; got.Status != model.StatusNew || got.Name != "ann" {
		t.Errorf("internal state mutated through a returned copy: %+v", got)
	}
}

func TestController_ViewAndStats(t *testing.T) {
	src := newFakeSource(
		row("1", "ann", model.StatusNew, time.Hour),
		row("2", "bob", model.StatusReplied, 2*time.Hour),
		row("3", "cat", model.StatusRead, 10*24*time.Hour),
	)
	c := newReady(t, src, Options{})

	got := c.View(model.ViewParams{Status: string(model.StatusNew)})
	if diff := cmp.Diff([]string{"1"}, ids(got)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	got = c.View(model.ViewParams{Sort: model.SortByName})
	if diff := cmp.Diff([]string{"1", "2", "3"}, ids(got)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	stats := c.Stats()
	if stats.TotalCount != 3 || stats.PendingCount != 2 || stats.RecentCount != 2 || stats.ResponseRatePercent != 33 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestController_SetViewParamsNormalizes(t *testing.T) {
	c := New(newFakeSource(), quietLogger(), nil, Options{})
	c.SetViewParams(model.ViewParams{Search: "acme", Sort: "bogus"})
	want := model.ViewParams{Search: "acme", Status: model.StatusFilterAll, Sort: model.SortByDate}
	if diff := cmp.Diff(want, c.ViewParams()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestController_Export(t *testing.T) {
	c := newReady(t, newFakeSource(row("1", "ann", model.StatusNew, 0), row("2", "bob", model.StatusRead, time.Hour)), Options{})
	var buf bytes.Buffer
	if err := c.Export(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(rows) != 3 || rows[1][0] != "ann" || rows[2][4] != "read" {
		t.Errorf("unexpected export %q", rows)
	}
}

func TestController_ConcurrentOperations(t *testing.T) {
	src := newFakeSource(row("1", "ann", model.StatusNew, 0), row("2", "bob", model.StatusNew, 0))
	c := newReady(t, src, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); _ = c.Refresh(context.Background()) }()
		go func() { defer wg.Done(); _ = c.MarkRead(context.Background(), "1") }()
		go func() { defer wg.Done(); _ = c.Stats(); _ = c.Snapshot() }()
	}
	wg.Wait()
	if got := c.Messages(); len(got) != 2 {
		t.Errorf("expected 2 messages, got %d", len(got))
	}
}
