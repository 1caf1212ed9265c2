package cbs

import (
	"github.com/dgraph-io/ristretto/v2"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/pdrpinto/mapf/internal/telemetry"
	"github.com/pdrpinto/mapf/search"
	"github.com/pdrpinto/mapf/world"
)

// replanKey identifies a low-level search. Searches are deterministic, so
// equal keys give equal results.
type replanKey struct {
	Agent       world.AgentID
	Strategy    search.Strategy
	Weight      int
	Constraints []world.ConstraintKey
}

type replanEntry struct {
	constraints world.ConstraintSet
	result      *search.Result
}

// replanCache memoises successful replans. A nil cache stores nothing.
type replanCache struct {
	cache *ristretto.Cache[uint64, replanEntry]
}

func newReplanCache(maxEntries int64) (*replanCache, error) {
	if maxEntries <= 0 {
		return nil, nil
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, replanEntry]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &replanCache{cache: cache}, nil
}

func keyFor(agent world.AgentID, cfg search.Config, constraints world.ConstraintSet) (uint64, error) {
	return hashstructure.Hash(replanKey{
		Agent:       agent,
		Strategy:    cfg.Strategy,
		Weight:      cfg.Weight,
		Constraints: constraints.Keys(),
	}, hashstructure.FormatV2, nil)
}

func (c *replanCache) get(key uint64, constraints world.ConstraintSet) (*search.Result, bool) {
	if c == nil {
		return nil, false
	}
	entry, ok := c.cache.Get(key)
	if !ok || !entry.constraints.Equal(constraints) {
		telemetry.ReplanCache.WithLabelValues("miss").Inc()
		return nil, false
	}
	telemetry.ReplanCache.WithLabelValues("hit").Inc()
	return entry.result, true
}

func (c *replanCache) put(key uint64, constraints world.ConstraintSet, result *search.Result) {
	if c == nil {
		return
	}
	c.cache.Set(key, replanEntry{constraints: constraints, result: result}, 1)
}

func (c *replanCache) close() {
	if c != nil {
		c.cache.Close()
	}
}
