package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opscart/rule-score-analyzer/pkg/models"
)

// fingerprintSpace namespaces content fingerprints so they never collide
// with randomly generated ids
var fingerprintSpace = uuid.MustParse("6f1c1d4e-8b1a-4c57-9a43-2f0d5e7b9c10")

// Fingerprint derives a stable id from arbitrary content
func Fingerprint(content []byte) uuid.UUID {
	return uuid.NewSHA1(fingerprintSpace, content)
}

// ResultKey builds the cache key for an analysis of ruleID whose inputs
// hash to fingerprint. The key never contains wall-clock time.
func ResultKey(ruleID string, fingerprint uuid.UUID) string {
	return ruleID + "|" + fingerprint.String()
}

// ResultCache caches analysis results for a bounded time
type ResultCache struct {
	data  map[string]*cacheEntry
	ttl   time.Duration
	now   func() time.Time
	mutex sync.Mutex
}

type cacheEntry struct {
	result    *models.AnalysisResult
	expiresAt time.Time
}

func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (c *ResultCache) Get(key string) (*models.AnalysisResult, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.data[key]
	if !exists {
		return nil, false
	}

	if c.now().After(entry.expiresAt) {
		// Expired
		delete(c.data, key)
		return nil, false
	}

	return entry.result, true
}

func (c *ResultCache) Set(key string, result *models.AnalysisResult) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = &cacheEntry{
		result:    result,
		expiresAt: c.now().Add(c.ttl),
	}
}

// InvalidateRule drops every cached result for ruleID
func (c *ResultCache) InvalidateRule(ruleID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	prefix := ruleID + "|"
	for key := range c.data {
		// fingerprints never contain the separator, so a longer rule id
		// sharing this prefix is left alone
		if strings.HasPrefix(key, prefix) && !strings.Contains(key[len(prefix):], "|") {
			delete(c.data, key)
		}
	}
}

func (c *ResultCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]*cacheEntry)
}

func (c *ResultCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.data)
}
