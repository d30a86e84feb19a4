package profilestore

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
)

type memoryRecord struct {
	fields    models.Fields
	createdAt time.Time
	updatedAt time.Time
}

// Memory keeps profiles in process memory.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*memoryRecord), now: utcNow}
}

func (m *Memory) Get(ctx context.Context, id string) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &models.Profile{
		ID:        id,
		Fields:    r.fields.Clone(),
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}, nil
}

// Create adds a record for id. An existing record is merged like Update and
// keeps its creation time.
func (m *Memory) Create(ctx context.Context, id string, fields models.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := prepareCreate(id, fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	r, ok := m.records[id]
	if !ok {
		m.records[id] = &memoryRecord{fields: f.Clone(), createdAt: now, updatedAt: now}
		return nil
	}
	for k, v := range f.Clone() {
		r.fields[k] = v
	}
	r.updatedAt = now
	return nil
}

func (m *Memory) Update(ctx context.Context, id string, fields models.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := prepareUpdate(id, fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range f.Clone() {
		r.fields[k] = v
	}
	r.updatedAt = m.now()
	return nil
}

func (m *Memory) Close() error {
	return nil
}
