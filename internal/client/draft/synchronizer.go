package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/common"
	"github.com/dmitrijs2005/gophmeet/internal/logging"
)

// ErrClosed is returned by calls on a closed synchronizer.
var ErrClosed = errors.New("draft synchronizer is closed")

// Store is the write side of the profile store.
type Store interface {
	Create(ctx context.Context, id string, fields models.Fields) error
	Update(ctx context.Context, id string, fields models.Fields) error
}

// ProfileSource gives read access to the session. Synchronizers never write
// the cached profile; they ask for a refresh after a successful commit.
type ProfileSource interface {
	Identity() *models.Identity
	Profile() *models.Profile
	RefreshProfile(ctx context.Context) error
}

// Options tune a Synchronizer. Zero values take the defaults below.
type Options struct {
	Delay        time.Duration
	SavedWindow  time.Duration
	ErrorWindow  time.Duration
	StoreTimeout time.Duration
	Clock        Clock
	Logger       logging.Logger
}

const (
	DefaultDelay       = 1500 * time.Millisecond
	DefaultSavedWindow = 2 * time.Second
	DefaultErrorWindow = 3 * time.Second
)

func (o Options) withDefaults() Options {
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	if o.SavedWindow <= 0 {
		o.SavedWindow = DefaultSavedWindow
	}
	if o.ErrorWindow <= 0 {
		o.ErrorWindow = DefaultErrorWindow
	}
	if o.Clock == nil {
		o.Clock = RealClock()
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	return o
}

// Synchronizer debounces edits of one screen's draft into profile store
// writes. At most one commit runs at a time.
type Synchronizer struct {
	schema Schema
	src    ProfileSource
	store  Store
	opts   Options
	log    logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	idle        *sync.Cond
	draft       models.Fields
	snapshot    string
	created     bool
	status      SaveStatus
	lastErr     error
	gen         uint64
	timer       Timer
	statusTimer Timer
	committing  bool // signalled on idle when it goes false
	pending     bool
	closed      bool
	wg          sync.WaitGroup

	notifyMu sync.Mutex
	subs     map[int]func(SaveStatus)
	nextSub  int
}

// New builds a synchronizer for schema and seeds it from the cached profile.
// The seed is the initial population of the screen and is never saved.
func New(ctx context.Context, schema Schema, src ProfileSource, store Store, opts Options) *Synchronizer {
	opts = opts.withDefaults()
	s := &Synchronizer{
		schema: schema,
		src:    src,
		store:  store,
		opts:   opts,
		log:    opts.Logger.With("module", "draft", "screen", schema.Name),
		subs:   make(map[int]func(SaveStatus)),
	}
	s.idle = sync.NewCond(&s.mu)
	s.ctx, s.cancel = context.WithCancel(ctx)

	seed := schema.Seed(src.Profile())
	s.draft = seed.Clone()
	snap, err := serialize(seed)
	if err != nil {
		// An empty snapshot makes the first edit save the whole draft.
		s.log.Error(ctx, "seed snapshot failed", "error", err)
	}
	s.snapshot = snap
	return s
}

// Schema returns the field set this synchronizer edits.
func (s *Synchronizer) Schema() Schema {
	return s.schema
}

// Draft returns a copy of the current draft.
func (s *Synchronizer) Draft() models.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Status returns the current save status.
func (s *Synchronizer) Status() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the error of the last failed commit while the status is Error.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Error {
		return nil
	}
	return s.lastErr
}

// OnStatus registers fn for status changes.
func (s *Synchronizer) OnStatus(fn func(SaveStatus)) func() {
	s.notifyMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.notifyMu.Unlock()

	return func() {
		s.notifyMu.Lock()
		delete(s.subs, id)
		s.notifyMu.Unlock()
	}
}

// UpdateField sets one field of the draft and marks it dirty.
func (s *Synchronizer) UpdateField(name string, value any) error {
	if !s.schema.Has(name) {
		return fmt.Errorf("%w: %s has no field %q", common.ErrorUnknownField, s.schema.Name, name)
	}
	d := s.Draft()
	if d == nil {
		d = models.Fields{}
	}
	d[name] = value
	return s.MarkDirty(d)
}

// MarkDirty replaces the draft and restarts the idle timer. Nothing is
// scheduled while signed out.
func (s *Synchronizer) MarkDirty(d models.Fields) error {
	if _, err := serialize(d); err != nil {
		return err
	}
	signedIn := s.src.Identity() != nil

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.draft = d.Clone()

	if !signedIn {
		return nil
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.opts.Clock.AfterFunc(s.opts.Delay, s.onTimer)
	return nil
}

func (s *Synchronizer) onTimer() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	if s.committing {
		s.pending = true
		s.mu.Unlock()
		return
	}
	s.committing = true
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	_ = s.runCommits(s.ctx)
}

// Flush commits the draft now instead of waiting for the idle timer. If a
// commit is already running, the draft is queued behind it and Flush returns
// once both are done. Status listeners must not call Flush.
func (s *Synchronizer) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	for s.committing {
		s.pending = true
		s.idle.Wait()
	}
	if s.closed {
		// Close drained the queue while we waited.
		err := s.lastErr
		if s.status != Error {
			err = nil
		}
		s.mu.Unlock()
		return err
	}
	s.committing = true
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	return s.runCommits(ctx)
}

// runCommits commits until no dirty notification arrived during a commit.
// The caller has set s.committing.
func (s *Synchronizer) runCommits(ctx context.Context) error {
	for {
		err := s.commit(ctx)

		s.mu.Lock()
		if s.pending {
			s.pending = false
			s.mu.Unlock()
			continue
		}
		s.committing = false
		s.idle.Broadcast()
		s.mu.Unlock()
		return err
	}
}

func (s *Synchronizer) commit(ctx context.Context) error {
	id := s.src.Identity()
	hasProfile := s.src.Profile() != nil

	s.mu.Lock()
	d := s.draft.Clone()
	snap, err := serialize(d)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if snap == s.snapshot || id == nil {
		s.mu.Unlock()
		return nil
	}

	create := !hasProfile && !s.created
	s.gen++
	gen := s.gen
	s.setStatusLocked(Saving)
	s.unlockAndPublish(Saving)

	if s.opts.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.StoreTimeout)
		defer cancel()
	}

	if create {
		fields := d.Clone()
		fields[models.FieldEmail] = id.Email
		err = s.store.Create(ctx, id.UID, fields)
	} else {
		err = s.store.Update(ctx, id.UID, d)
	}

	s.mu.Lock()
	if err != nil {
		s.lastErr = err
		s.setStatusLocked(Error)
		s.scheduleResetLocked(s.opts.ErrorWindow, gen)
		s.unlockAndPublish(Error)
		s.log.Error(ctx, "profile commit failed", "uid", id.UID, "create", create, "error", err)
		return err
	}

	s.snapshot = snap
	if create {
		s.created = true
	}
	s.setStatusLocked(Saved)
	s.scheduleResetLocked(s.opts.SavedWindow, gen)
	s.unlockAndPublish(Saved)
	s.log.Debug(ctx, "profile committed", "uid", id.UID, "create", create)

	if err := s.src.RefreshProfile(ctx); err != nil {
		s.log.Warn(ctx, "profile refresh after commit failed", "error", err)
	}
	return nil
}

// scheduleResetLocked arms the return to Idle. A closed synchronizer keeps
// its last status.
func (s *Synchronizer) scheduleResetLocked(d time.Duration, gen uint64) {
	if s.closed {
		return
	}
	s.statusTimer = s.opts.Clock.AfterFunc(d, s.resetStatus(gen))
}

// resetStatus returns a callback that goes back to Idle, unless a newer
// commit has started since commit gen.
func (s *Synchronizer) resetStatus(gen uint64) func() {
	return func() {
		s.mu.Lock()
		if s.closed || s.gen != gen || s.status == Idle {
			s.mu.Unlock()
			return
		}
		s.statusTimer = nil
		s.setStatusLocked(Idle)
		s.unlockAndPublish(Idle)
	}
}

// setStatusLocked records st and drops any pending status reset.
func (s *Synchronizer) setStatusLocked(st SaveStatus) {
	if s.statusTimer != nil {
		s.statusTimer.Stop()
		s.statusTimer = nil
	}
	s.status = st
}

func (s *Synchronizer) unlockAndPublish(st SaveStatus) {
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, fn := range s.subs {
		fn(st)
	}
}

// Close stops the idle timer, so an edit that was never flushed is dropped.
// A running commit is not cancelled: Close waits for it and for any edit
// queued behind it. Status listeners must not call Close.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.statusTimer != nil {
		s.statusTimer.Stop()
		s.statusTimer = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.cancel()
}
