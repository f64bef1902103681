package badge

import (
	"sort"
	"sync"

	"github.com/learnhub/badge-engine/internal/domain/shared"
)

// Catalog holds the active badge definitions. It is loaded once at startup
// and treated as immutable afterwards; the mutex only guards the rare admin
// reload path.
type Catalog struct {
	mu    sync.RWMutex
	byID  map[shared.BadgeID]Definition
	order []shared.BadgeID
}

// NewCatalog creates a catalog from the given definitions. Definitions that
// fail validation are rejected here rather than at evaluation time so that a
// misconfigured badge is caught on deploy, not silently skipped forever.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		byID: make(map[shared.BadgeID]Definition, len(defs)),
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, shared.NewDomainError("badge", "NewCatalog", shared.ErrAlreadyExists, "duplicate badge ID: "+string(d.ID))
		}
		c.byID[d.ID] = d
		c.order = append(c.order, d.ID)
	}
	sort.Slice(c.order, func(i, j int) bool { return c.order[i] < c.order[j] })
	return c, nil
}

// Get returns the definition for the given badge ID.
func (c *Catalog) Get(id shared.BadgeID) (Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.byID[id]
	if !ok {
		return Definition{}, shared.ErrBadgeNotFound
	}
	return d, nil
}

// All returns every definition in stable (ID-sorted) order. The engine
// iterates this list per candidate, so the order must be deterministic.
func (c *Catalog) All() []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Definition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
