package draft

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/client/profilestore"
	"github.com/dmitrijs2005/gophmeet/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = Schema{
	Name: "test",
	Fields: []Field{
		{Name: "firstName"},
		{Name: "username"},
		{Name: "about"},
		{Name: "showEmail", Default: false},
		{Name: "interests", Default: []string{}},
	},
}

type statusLog struct {
	mu  sync.Mutex
	got []SaveStatus
}

func (l *statusLog) add(s SaveStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, s)
}

func (l *statusLog) all() []SaveStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SaveStatus(nil), l.got...)
}

type harness struct {
	clock    *fakeClock
	store    *fakeStore
	src      *fakeSource
	sync     *Synchronizer
	statuses *statusLog
}

func newHarness(t *testing.T, profile *models.Profile) *harness {
	t.Helper()
	h := &harness{
		clock: &fakeClock{},
		store: &fakeStore{},
		src: &fakeSource{
			identity: &models.Identity{UID: "u1", Email: "ann@example.com", EmailVerified: true},
			profile:  profile,
		},
		statuses: &statusLog{},
	}
	h.sync = New(context.Background(), testSchema, h.src, h.store, Options{Clock: h.clock})
	h.sync.OnStatus(h.statuses.add)
	t.Cleanup(h.sync.Close)
	return h
}

func existing() *models.Profile {
	return &models.Profile{ID: "u1", Fields: models.Fields{"firstName": "Ann", "username": "ann", "showEmail": true}}
}

func TestSynchronizer_SeedIsNotSaved(t *testing.T) {
	h := newHarness(t, existing())

	assert.Equal(t, models.Fields{
		"firstName": "Ann",
		"username":  "ann",
		"showEmail": true,
		"interests": []string{},
	}, h.sync.Draft())

	h.clock.Advance(10 * time.Second)
	assert.Empty(t, h.store.Calls())
	assert.Equal(t, Idle, h.sync.Status())
	assert.Zero(t, h.clock.pending())
}

func TestSynchronizer_DebounceCollapsesBurst(t *testing.T) {
	h := newHarness(t, existing())

	for i, v := range []string{"A", "An", "Ann B"} {
		require.NoError(t, h.sync.UpdateField("about", v))
		if i < 2 {
			h.clock.Advance(time.Second)
		}
	}

	h.clock.Advance(DefaultDelay - time.Millisecond)
	assert.Empty(t, h.store.Calls())

	h.clock.Advance(time.Millisecond)
	calls := h.store.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "update", calls[0].Op)
	assert.Equal(t, "Ann B", calls[0].Fields["about"])
}

func TestSynchronizer_ThreeFieldsThenPause(t *testing.T) {
	h := newHarness(t, existing())

	require.NoError(t, h.sync.UpdateField("firstName", "Anna"))
	h.clock.Advance(200 * time.Millisecond)
	require.NoError(t, h.sync.UpdateField("username", "anna"))
	h.clock.Advance(300 * time.Millisecond)
	require.NoError(t, h.sync.UpdateField("about", "hi"))

	h.clock.Advance(2 * time.Second)

	calls := h.store.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, models.Fields{
		"firstName": "Anna",
		"username":  "anna",
		"about":     "hi",
		"showEmail": true,
		"interests": []string{},
	}, calls[0].Fields)
}

func TestSynchronizer_UnchangedDraftIsNotWritten(t *testing.T) {
	h := newHarness(t, existing())

	require.NoError(t, h.sync.UpdateField("about", "x"))
	require.NoError(t, h.sync.UpdateField("about", nil))
	d := h.sync.Draft()
	delete(d, "about")
	require.NoError(t, h.sync.MarkDirty(d))

	h.clock.Advance(5 * time.Second)
	assert.Empty(t, h.store.Calls())
	assert.Equal(t, Idle, h.sync.Status())
	assert.Empty(t, h.statuses.all())
}

func TestSynchronizer_CommittedDraftIsNotRewritten(t *testing.T) {
	h := newHarness(t, existing())

	require.NoError(t, h.sync.UpdateField("about", "x"))
	h.clock.Advance(DefaultDelay)
	require.Len(t, h.store.Calls(), 1)

	require.NoError(t, h.sync.UpdateField("about", "x"))
	h.clock.Advance(5 * time.Second)
	assert.Len(t, h.store.Calls(), 1)
}

func TestSynchronizer_StatusCycle(t *testing.T) {
	h := newHarness(t, existing())

	require.NoError(t, h.sync.UpdateField("about", "x"))
	h.clock.Advance(DefaultDelay)
	assert.Equal(t, Saved, h.sync.Status())
	assert.Equal(t, 1, h.src.refreshes)

	h.clock.Advance(DefaultSavedWindow - time.Millisecond)
	assert.Equal(t, Saved, h.sync.Status())
	h.clock.Advance(time.Millisecond)
	assert.Equal(t, Idle, h.sync.Status())

	assert.Equal(t, []SaveStatus{Saving, Saved, Idle}, h.statuses.all())
}

func TestSynchronizer_CreatesWhenNoProfile(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.sync.UpdateField("firstName", "Ann"))
	h.clock.Advance(DefaultDelay)
	require.NoError(t, h.sync.UpdateField("username", "ann"))
	h.clock.Advance(DefaultDelay)

	calls := h.store.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "create", calls[0].Op)
	assert.Equal(t, "u1", calls[0].ID)
	assert.Equal(t, "ann@example.com", calls[0].Fields["email"])
	assert.Equal(t, "update", calls[1].Op, "the profile exists after the first create")
	assert.NotContains(t, calls[1].Fields, "email")
}

func TestSynchronizer_ErrorThenIdleKeepsDraft(t *testing.T) {
	h := newHarness(t, existing())
	h.store.Err = errors.New("permission denied")

	require.NoError(t, h.sync.UpdateField("about", "unsaved"))
	h.clock.Advance(DefaultDelay)

	assert.Equal(t, Error, h.sync.Status())
	assert.EqualError(t, h.sync.Err(), "permission denied")
	assert.Zero(t, h.src.refreshes)

	h.clock.Advance(DefaultErrorWindow - time.Millisecond)
	assert.Equal(t, Error, h.sync.Status())
	h.clock.Advance(time.Millisecond)
	assert.Equal(t, Idle, h.sync.Status())
	assert.NoError(t, h.sync.Err())

	assert.Equal(t, "unsaved", h.sync.Draft()["about"])
	assert.Len(t, h.store.Calls(), 1, "no automatic retry")

	h.store.Err = nil
	require.NoError(t, h.sync.UpdateField("showEmail", false))
	h.clock.Advance(DefaultDelay)

	calls := h.store.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "unsaved", calls[1].Fields["about"])
	assert.Equal(t, Saved, h.sync.Status())
}

func TestSynchronizer_StaleResetDoesNotClobberNewerStatus(t *testing.T) {
	h := newHarness(t, existing())

	require.NoError(t, h.sync.UpdateField("about", "one"))
	h.clock.Advance(DefaultDelay) // saved, reset due in 2s
	require.Equal(t, Saved, h.sync.Status())

	h.clock.Advance(100 * time.Millisecond)
	h.store.Err = errors.New("offline")
	require.NoError(t, h.sync.UpdateField("about", "two"))
	h.clock.Advance(DefaultDelay) // error, reset due in 3s
	require.Equal(t, Error, h.sync.Status())

	h.clock.Advance(DefaultSavedWindow)
	assert.Equal(t, Error, h.sync.Status(), "first window must not reset a newer status")

	h.clock.Advance(DefaultErrorWindow)
	assert.Equal(t, Idle, h.sync.Status())
}

func TestSynchronizer_StaleResetGuardedByGeneration(t *testing.T) {
	h := newHarness(t, existing())

	require.NoError(t, h.sync.UpdateField("about", "one"))
	h.clock.Advance(DefaultDelay)
	stale := h.sync.resetStatus(h.sync.gen - 1)
	stale()
	assert.Equal(t, Saved, h.sync.Status())
}

func TestSynchronizer_EditDuringSavingIsCommittedAfter(t *testing.T) {
	h := newHarness(t, existing())

	var inFlight, maxInFlight, calls int
	h.store.During = func() {
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		calls++
		if calls == 1 {
			assert.Equal(t, Saving, h.sync.Status())
			require.NoError(t, h.sync.UpdateField("about", "later"))
			h.clock.Advance(DefaultDelay)
		}
		inFlight--
	}

	require.NoError(t, h.sync.UpdateField("about", "first"))
	h.clock.Advance(DefaultDelay)

	got := h.store.Calls()
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Fields["about"])
	assert.Equal(t, "later", got[1].Fields["about"])
	assert.Equal(t, 1, maxInFlight)
	assert.Equal(t, Saved, h.sync.Status())
}

func TestSynchronizer_SignedOutSchedulesNothing(t *testing.T) {
	h := newHarness(t, existing())
	h.src.identity = nil

	require.NoError(t, h.sync.UpdateField("about", "x"))
	assert.Zero(t, h.clock.pending())
	h.clock.Advance(5 * time.Second)
	assert.Empty(t, h.store.Calls())
	assert.Equal(t, "x", h.sync.Draft()["about"])
}

func TestSynchronizer_CloseDropsPendingEdit(t *testing.T) {
	h := newHarness(t, existing())

	require.NoError(t, h.sync.UpdateField("about", "x"))
	h.sync.Close()
	h.clock.Advance(5 * time.Second)

	assert.Empty(t, h.store.Calls())
	assert.ErrorIs(t, h.sync.MarkDirty(models.Fields{}), ErrClosed)
	assert.ErrorIs(t, h.sync.Flush(context.Background()), ErrClosed)
	h.sync.Close()
}

func TestSynchronizer_Flush(t *testing.T) {
	h := newHarness(t, existing())

	require.NoError(t, h.sync.UpdateField("about", "now"))
	require.NoError(t, h.sync.Flush(context.Background()))
	require.Len(t, h.store.Calls(), 1)
	assert.Equal(t, 1, h.clock.pending(), "only the saved-status reset remains")

	h.store.Err = errors.New("boom")
	require.NoError(t, h.sync.UpdateField("about", "again"))
	assert.EqualError(t, h.sync.Flush(context.Background()), "boom")
}

func TestSynchronizer_FlushWaitsForRunningCommit(t *testing.T) {
	h := newHarness(t, existing())
	entered, release := h.store.blockFirstCall()

	require.NoError(t, h.sync.UpdateField("about", "first"))
	advanced := make(chan struct{})
	go func() {
		h.clock.Advance(DefaultDelay)
		close(advanced)
	}()
	<-entered

	require.NoError(t, h.sync.UpdateField("about", "second"))
	flushed := make(chan error, 1)
	go func() { flushed <- h.sync.Flush(context.Background()) }()

	select {
	case err := <-flushed:
		t.Fatalf("flush returned %v while a commit was running", err)
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-flushed)
	<-advanced
	h.sync.Close()

	calls := h.store.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "first", calls[0].Fields["about"])
	assert.Equal(t, "second", calls[1].Fields["about"])
	assert.Equal(t, Saved, h.sync.Status())
}

func TestSynchronizer_CloseMidCommitKeepsQueuedEdit(t *testing.T) {
	h := newHarness(t, existing())
	entered, release := h.store.blockFirstCall()

	require.NoError(t, h.sync.UpdateField("about", "first"))
	advanced := make(chan struct{})
	go func() {
		h.clock.Advance(DefaultDelay)
		close(advanced)
	}()
	<-entered

	// The idle timer of the second edit fires while the first commit runs.
	require.NoError(t, h.sync.UpdateField("about", "second"))
	h.clock.Advance(DefaultDelay)

	closed := make(chan struct{})
	go func() {
		h.sync.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("close returned while a commit was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-closed
	<-advanced

	calls := h.store.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "second", calls[1].Fields["about"])
	assert.Equal(t, []error{nil, nil}, h.store.CtxErrs(), "running commits are not cancelled")
	assert.Zero(t, h.clock.pending())
}

func TestSynchronizer_CreateWithoutCachedProfileKeepsRemoteFields(t *testing.T) {
	store := profilestore.NewMemory()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, "u1", models.Fields{"firstName": "Ann", "username": "ann", "about": "old"}))

	src := &fakeSource{identity: &models.Identity{UID: "u1", Email: "ann@example.com", EmailVerified: true}}
	clock := &fakeClock{}
	s := New(ctx, testSchema, src, store, Options{Clock: clock})
	t.Cleanup(s.Close)

	require.NoError(t, s.UpdateField("showEmail", true))
	require.NoError(t, s.Flush(ctx))

	p, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ann", p.Fields.String("username"))
	assert.Equal(t, "Ann", p.Fields.String("firstName"))
	assert.Equal(t, true, p.Fields["showEmail"])
	assert.Equal(t, "ann@example.com", p.Fields.String("email"))
}

func TestSynchronizer_UnserializableSeedStillSavesFirstEdit(t *testing.T) {
	h := &harness{clock: &fakeClock{}, store: &fakeStore{}}
	h.src = &fakeSource{
		identity: &models.Identity{UID: "u1", Email: "ann@example.com"},
		profile:  &models.Profile{ID: "u1", Fields: models.Fields{"about": make(chan int)}},
	}
	h.sync = New(context.Background(), testSchema, h.src, h.store, Options{Clock: h.clock})
	t.Cleanup(h.sync.Close)

	require.NoError(t, h.sync.UpdateField("about", "fixed"))
	h.clock.Advance(DefaultDelay)

	calls := h.store.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "fixed", calls[0].Fields["about"])
}

func TestSynchronizer_RefreshFailureKeepsSaved(t *testing.T) {
	h := newHarness(t, existing())
	h.src.RefreshErr = errors.New("refresh failed")

	require.NoError(t, h.sync.UpdateField("about", "x"))
	h.clock.Advance(DefaultDelay)
	assert.Equal(t, Saved, h.sync.Status())
}

func TestSynchronizer_UnknownField(t *testing.T) {
	h := newHarness(t, existing())
	err := h.sync.UpdateField("nope", 1)
	assert.ErrorIs(t, err, common.ErrorUnknownField)
}

func TestSaveStatus_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "saving", Saving.String())
	assert.Equal(t, "saved", Saved.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "SaveStatus(9)", SaveStatus(9).String())
}
