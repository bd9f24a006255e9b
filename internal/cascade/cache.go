package cascade

import (
	"sync"

	"github.com/ledgerlens/ledgerlens/internal/model"
)

// resultCache stores classification results keyed by transaction
// fingerprint. It is scoped to one Cascade instance; a new session gets a
// fresh cache. Last-write-wins on concurrent population is acceptable since
// results for identical fingerprints are equivalent.
type resultCache struct {
	entries map[string]model.ClassificationResult
	mu      sync.RWMutex
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]model.ClassificationResult)}
}

func (c *resultCache) get(fingerprint string) (model.ClassificationResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.entries[fingerprint]
	return result, ok
}

func (c *resultCache) set(fingerprint string, result model.ClassificationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = result
}

// clear drops all entries. Called whenever the rule list changes, since a
// cached result may have been produced by a rule that no longer applies.
func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]model.ClassificationResult)
}

func (c *resultCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
