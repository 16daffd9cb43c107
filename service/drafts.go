package service

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/AnTengye/projectbrief/model"
)

// DraftCache keeps the drafted text of each form session. Entries expire
// ttl after their last write; the least recently used are evicted past size.
type DraftCache struct {
	mu    sync.Mutex // serializes read-modify-write in Update
	cache *expirable.LRU[string, model.DraftState]
}

func NewDraftCache(size int, ttl time.Duration) *DraftCache {
	return &DraftCache{cache: expirable.NewLRU[string, model.DraftState](size, nil, ttl)}
}

// Get returns the session's draft, or an empty one.
func (c *DraftCache) Get(sessionID string) model.DraftState {
	d, _ := c.cache.Get(sessionID)
	return d
}

func (c *DraftCache) Put(sessionID string, d model.DraftState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(sessionID, d)
}

// Update applies fn to the session's current draft and stores the result
// atomically with respect to other writers. It returns the stored draft.
func (c *DraftCache) Update(sessionID string, fn func(model.DraftState) model.DraftState) model.DraftState {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, _ := c.cache.Get(sessionID)
	next := fn(current)
	c.store(sessionID, next)
	return next
}

func (c *DraftCache) store(sessionID string, d model.DraftState) {
	if d.IsEmpty() {
		c.cache.Remove(sessionID)
		return
	}
	c.cache.Add(sessionID, d)
}

func (c *DraftCache) Clear(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(sessionID)
}

// Len is the number of live sessions with a draft.
func (c *DraftCache) Len() int {
	return c.cache.Len()
}
