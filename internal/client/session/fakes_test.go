package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophmeet/internal/client/identity"
	"github.com/dmitrijs2005/gophmeet/internal/client/models"
)

// fakeGateway delivers notifications synchronously through emit.
type fakeGateway struct {
	mu       sync.Mutex
	listener identity.Listener
	current  *models.Identity

	verifiedAfterReload bool

	SignInErr error
	SignUpErr error
	SignOutErr error
	ReloadErr  error

	Calls []string
}

func (g *fakeGateway) record(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, call)
}

func (g *fakeGateway) emit(id *models.Identity) {
	g.mu.Lock()
	g.current = id.Clone()
	l := g.listener
	g.mu.Unlock()
	if l != nil {
		l(id.Clone())
	}
}

func (g *fakeGateway) SignIn(ctx context.Context, creds models.Credentials) (*models.Identity, error) {
	g.record("SignIn")
	if g.SignInErr != nil {
		return nil, g.SignInErr
	}
	return &models.Identity{UID: "u1", Email: creds.Email, EmailVerified: true}, nil
}

func (g *fakeGateway) SignUp(ctx context.Context, creds models.Credentials) (*models.Identity, error) {
	g.record("SignUp")
	if g.SignUpErr != nil {
		return nil, g.SignUpErr
	}
	return &models.Identity{UID: "u1", Email: creds.Email}, nil
}

func (g *fakeGateway) SignOut(ctx context.Context) error {
	g.record("SignOut")
	return g.SignOutErr
}

func (g *fakeGateway) SendPasswordReset(ctx context.Context, email string) error {
	g.record("SendPasswordReset:" + email)
	return nil
}

func (g *fakeGateway) Subscribe(l identity.Listener) func() {
	g.mu.Lock()
	g.listener = l
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		g.listener = nil
		g.mu.Unlock()
	}
}

func (g *fakeGateway) Reload(ctx context.Context) error {
	g.record("Reload")
	if g.ReloadErr != nil {
		return g.ReloadErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != nil {
		g.current.EmailVerified = g.verifiedAfterReload
	}
	return nil
}

func (g *fakeGateway) IsEmailVerified() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current != nil && g.current.EmailVerified
}

func (g *fakeGateway) SendVerificationEmail(ctx context.Context) error {
	g.record("SendVerificationEmail")
	return nil
}

func (g *fakeGateway) CurrentUser() *models.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.Clone()
}

// fakeStore serves profiles from a map. When gate is set, Get blocks until
// a value is sent on it.
type fakeStore struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	gate     chan struct{}
	started  chan struct{}
	GetErr   error
	gets     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[string]*models.Profile)}
}

func (s *fakeStore) put(p *models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p.Clone()
}

func (s *fakeStore) Get(ctx context.Context, id string) (*models.Profile, error) {
	s.mu.Lock()
	s.gets++
	gate, started := s.gate, s.started
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	return s.profiles[id].Clone(), nil
}

func (s *fakeStore) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

var errStoreDown = errors.New("store down")
