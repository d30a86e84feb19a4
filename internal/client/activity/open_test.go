package activity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/gophmeet/internal/client/config"
	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/client/profilestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer s.Close()

	ts, ok := s.(*timeoutStore)
	require.True(t, ok)
	_, ok = ts.next.(*Memory)
	assert.True(t, ok)
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{ProfileStoreDriver: profilestore.DriverRedis, RedisURL: "redis://" + mr.Addr()}

	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.(*Redis)
	assert.True(t, ok, "zero timeout keeps the adapter unwrapped")
}

func TestOpen_Unknown(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{ProfileStoreDriver: "sqlite"})
	require.Error(t, err)
}

// deadlineStore records whether calls carry a deadline.
type deadlineStore struct {
	*Memory
	sawDeadline bool
}

func (d *deadlineStore) PublicPosts(ctx context.Context, limit int) ([]models.Post, error) {
	_, d.sawDeadline = ctx.Deadline()
	return d.Memory.PublicPosts(ctx, limit)
}

func TestWithTimeout(t *testing.T) {
	inner := &deadlineStore{Memory: NewMemory()}
	assert.Same(t, Store(inner), WithTimeout(inner, 0))

	s := WithTimeout(inner, time.Second)
	_, err := s.PublicPosts(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, inner.sawDeadline)
}
