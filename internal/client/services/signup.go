package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophmeet/internal/common"
	"github.com/dmitrijs2005/gophmeet/internal/logging"
)

// SignupStash keeps the pending signup record between the sign-up form and
// the first profile save.
type SignupStash struct {
	repo metadata.Repository
	log  logging.Logger
}

func NewSignupStash(repo metadata.Repository, log logging.Logger) *SignupStash {
	if log == nil {
		log = logging.Nop()
	}
	return &SignupStash{repo: repo, log: log}
}

// Save replaces the stashed record.
func (s *SignupStash) Save(ctx context.Context, p models.PendingSignup) error {
	return saveSignup(ctx, s.repo, p)
}

func saveSignup(ctx context.Context, repo metadata.Repository, p models.PendingSignup) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode signup data: %w", err)
	}
	return repo.Set(ctx, common.SignupDataKey, b)
}

// Load returns the stashed record, or nil when there is none or it cannot
// be read.
func (s *SignupStash) Load(ctx context.Context) *models.PendingSignup {
	b, err := s.repo.Get(ctx, common.SignupDataKey)
	if err != nil {
		s.log.Warn(ctx, "signup data read failed", "error", err)
		return nil
	}
	if b == nil {
		return nil
	}

	var p models.PendingSignup
	if err := json.Unmarshal(b, &p); err != nil {
		s.log.Error(ctx, "signup data is not parsable", "error", err)
		return nil
	}
	return &p
}

// Clear removes the stashed record.
func (s *SignupStash) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, common.SignupDataKey)
}
