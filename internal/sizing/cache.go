package sizing

import "sync"

// cache holds resolved constraints keyed by (market, side). Reads vastly
// outnumber writes; values are stored whole so concurrent readers see either
// the old or the new constraint, never a partial one.
type cache struct {
	mu          sync.RWMutex
	constraints map[string]SizeConstraint
}

func newCache() *cache {
	return &cache{constraints: make(map[string]SizeConstraint)}
}

func cacheKey(marketID, side string) string {
	return marketID + "|" + side
}

func (c *cache) get(marketID, side string) (SizeConstraint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sc, ok := c.constraints[cacheKey(marketID, side)]
	return sc, ok
}

func (c *cache) put(sc SizeConstraint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.constraints[cacheKey(sc.MarketID, sc.Side)] = sc
}
