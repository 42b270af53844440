// Package catalog holds the in-memory reward catalog and its file I/O.
//
// A Catalog is not safe for concurrent use; callers that share one across
// goroutines must serialize access themselves.
package catalog

import (
	"sort"

	"github.com/unrealsaint/lucera2missionparser/reward"
)

// Catalog maps reward id to reward, iterating in insertion order.
// Replacing an existing id keeps its original position.
type Catalog struct {
	order   []int
	rewards map[int]*reward.Reward
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{rewards: make(map[int]*reward.Reward)}
}

// Len returns the number of rewards.
func (c *Catalog) Len() int { return len(c.order) }

// Has reports whether id is present.
func (c *Catalog) Has(id int) bool {
	_, ok := c.rewards[id]
	return ok
}

// Get returns the reward stored under id.
func (c *Catalog) Get(id int) (*reward.Reward, bool) {
	rw, ok := c.rewards[id]
	return rw, ok
}

// Put stores rw under rw.ID, overwriting any existing entry.
func (c *Catalog) Put(rw *reward.Reward) {
	rw.Normalize()
	if _, ok := c.rewards[rw.ID]; !ok {
		c.order = append(c.order, rw.ID)
	}
	c.rewards[rw.ID] = rw
}

// PutAll stores each reward in order; later duplicates overwrite earlier ones.
func (c *Catalog) PutAll(rewards []*reward.Reward) {
	for _, rw := range rewards {
		c.Put(rw)
	}
}

// Delete removes id and reports whether it was present.
func (c *Catalog) Delete(id int) bool {
	if _, ok := c.rewards[id]; !ok {
		return false
	}
	delete(c.rewards, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every reward.
func (c *Catalog) Clear() {
	c.order = nil
	c.rewards = make(map[int]*reward.Reward)
}

// IDs returns ids in iteration order.
func (c *Catalog) IDs() []int {
	return append([]int(nil), c.order...)
}

// Rewards returns rewards in iteration order. The slice is new; the
// rewards are shared with the catalog.
func (c *Catalog) Rewards() []*reward.Reward {
	out := make([]*reward.Reward, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.rewards[id])
	}
	return out
}

// Sorted returns rewards ordered by id.
func (c *Catalog) Sorted() []*reward.Reward {
	out := c.Rewards()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	cp := New()
	for _, rw := range c.Rewards() {
		cp.Put(rw.Clone())
	}
	return cp
}
