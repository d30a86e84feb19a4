package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/client/profilestore"
	"github.com/dmitrijs2005/gophmeet/internal/client/repositories"
	"github.com/stretchr/testify/require"
)

func openLocal(t *testing.T) *repositories.Local {
	t.Helper()
	l, err := repositories.OpenLocal(context.Background(), filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

// fakeSession records the actions the services ask for.
type fakeSession struct {
	mu    sync.Mutex
	Calls []string
	Creds []models.Credentials

	LoginErr  error
	SignUpErr error
	VerifyErr error
	LogoutErr error
	ResetErr  error
}

func (s *fakeSession) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, call)
}

func (s *fakeSession) Login(ctx context.Context, creds models.Credentials) error {
	s.record("Login")
	s.Creds = append(s.Creds, creds)
	return s.LoginErr
}

func (s *fakeSession) SignUp(ctx context.Context, creds models.Credentials) (*models.Identity, error) {
	s.record("SignUp")
	s.Creds = append(s.Creds, creds)
	if s.SignUpErr != nil {
		return nil, s.SignUpErr
	}
	return &models.Identity{UID: "u1", Email: creds.Email, DisplayName: creds.DisplayName}, nil
}

func (s *fakeSession) VerifyEmail(ctx context.Context) error {
	s.record("VerifyEmail")
	return s.VerifyErr
}

func (s *fakeSession) Logout(ctx context.Context) error {
	s.record("Logout")
	return s.LogoutErr
}

func (s *fakeSession) SendPasswordReset(ctx context.Context, email string) error {
	s.record("SendPasswordReset:" + email)
	return s.ResetErr
}

func (s *fakeSession) ResendVerification(ctx context.Context) error {
	s.record("ResendVerification")
	return nil
}

// fakeSource serves the cached profile from a memory store, the way the
// session controller does after RefreshProfile.
type fakeSource struct {
	mu         sync.Mutex
	id         *models.Identity
	profile    *models.Profile
	store      *profilestore.Memory
	refreshErr error
	refreshes  int
}

func (s *fakeSource) Identity() *models.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id.Clone()
}

func (s *fakeSource) Profile() *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

func (s *fakeSource) RefreshProfile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	if s.refreshErr != nil {
		return s.refreshErr
	}
	if s.id == nil {
		return nil
	}
	p, err := s.store.Get(ctx, s.id.UID)
	if err != nil {
		return err
	}
	s.profile = p
	return nil
}

// countingStore wraps a memory store and counts writes.
type countingStore struct {
	*profilestore.Memory
	creates int
	updates int
	err     error
}

func (s *countingStore) Create(ctx context.Context, id string, fields models.Fields) error {
	s.creates++
	if s.err != nil {
		return s.err
	}
	return s.Memory.Create(ctx, id, fields)
}

func (s *countingStore) Update(ctx context.Context, id string, fields models.Fields) error {
	s.updates++
	if s.err != nil {
		return s.err
	}
	return s.Memory.Update(ctx, id, fields)
}
