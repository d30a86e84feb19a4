package session

import (
	"sync"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
)

// ProfileCache holds the client's copy of the signed-in user's profile.
// Anyone may read or subscribe; only this package can replace the value.
type ProfileCache struct {
	mu      sync.RWMutex
	profile *models.Profile
	subs    map[int]func(*models.Profile)
	nextSub int
}

func newProfileCache() *ProfileCache {
	return &ProfileCache{subs: make(map[int]func(*models.Profile))}
}

// Get returns a copy of the cached profile, or nil.
func (c *ProfileCache) Get() *models.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile.Clone()
}

// Subscribe registers fn to be called with a copy of every new value.
func (c *ProfileCache) Subscribe(fn func(*models.Profile)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *ProfileCache) set(p *models.Profile) {
	c.mu.Lock()
	c.profile = p.Clone()
	subs := make([]func(*models.Profile), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(p.Clone())
	}
}
