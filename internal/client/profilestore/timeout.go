package profilestore

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
)

type timeoutStore struct {
	next Store
	d    time.Duration
}

// WithTimeout bounds every call on s to d. A non-positive d returns s as is.
func WithTimeout(s Store, d time.Duration) Store {
	if d <= 0 {
		return s
	}
	return &timeoutStore{next: s, d: d}
}

func (t *timeoutStore) Get(ctx context.Context, id string) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Get(ctx, id)
}

func (t *timeoutStore) Create(ctx context.Context, id string, fields models.Fields) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Create(ctx, id, fields)
}

func (t *timeoutStore) Update(ctx context.Context, id string, fields models.Fields) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.next.Update(ctx, id, fields)
}

func (t *timeoutStore) Close() error {
	return t.next.Close()
}
