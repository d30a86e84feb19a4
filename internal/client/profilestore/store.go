// Package profilestore persists profile records keyed by user id.
//
// Every adapter follows the same rules: nil-valued fields are stripped before
// writing, Create stamps uid and both timestamps, Update merges the given
// top-level fields into the stored record and stamps the update time. Create
// never drops fields of a record that already exists: it merges like Update
// and keeps the creation time, so a stale "no profile yet" decision cannot
// erase a remote record.
package profilestore

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/common"
)

// ErrNotFound is returned by Update when no record exists for the id.
var ErrNotFound = common.ErrorNotFound

// ErrInvalidID is returned for an empty profile id.
var ErrInvalidID = errors.New("profile id is empty")

// Store is the profile record storage.
type Store interface {
	// Get returns nil, nil when the profile does not exist.
	Get(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, id string, fields models.Fields) error
	Update(ctx context.Context, id string, fields models.Fields) error
	Close() error
}

// Clean returns a copy of fields without nil values. Nested maps are cleaned
// recursively and dropped when they end up empty. Store-managed timestamps
// are removed as well.
func Clean(fields models.Fields) models.Fields {
	out := make(models.Fields, len(fields))
	for k, v := range fields {
		if k == models.FieldCreatedAt || k == models.FieldUpdatedAt {
			continue
		}
		if v, ok := cleanValue(v); ok {
			out[k] = v
		}
	}
	return out
}

func cleanValue(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case models.Fields:
		c := cleanNested(t)
		return c, len(c) > 0
	case map[string]any:
		c := cleanNested(t)
		return map[string]any(c), len(c) > 0
	default:
		return v, true
	}
}

func cleanNested(m map[string]any) models.Fields {
	out := make(models.Fields, len(m))
	for k, v := range m {
		if v, ok := cleanValue(v); ok {
			out[k] = v
		}
	}
	return out
}

// prepareCreate cleans fields and stamps the uid.
func prepareCreate(id string, fields models.Fields) (models.Fields, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	out := Clean(fields)
	out[models.FieldUID] = id
	return out, nil
}

// prepareUpdate cleans fields; uid is immutable and dropped.
func prepareUpdate(id string, fields models.Fields) (models.Fields, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	out := Clean(fields)
	delete(out, models.FieldUID)
	return out, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
