package monitor

import (
	"log/slog"

	"github.com/driftwatch/driftwatch/internal/fingerprint"
)

// Cache holds the last recorded fingerprint per algorithm for one monitored
// object. It is never shared between objects, and is bounded by the fixed
// algorithm set. The backing map is allocated lazily on first use.
type Cache struct {
	entries map[fingerprint.Algorithm]fingerprint.Fingerprint
}

// Get returns the cached fingerprint for algo, if one was ever recorded.
func (c *Cache) Get(algo fingerprint.Algorithm) (fingerprint.Fingerprint, bool) {
	fp, ok := c.entries[algo]
	return fp, ok
}

// Set records fp as the last-known fingerprint for algo.
func (c *Cache) Set(algo fingerprint.Algorithm, fp fingerprint.Fingerprint) {
	if c.entries == nil {
		c.entries = make(map[fingerprint.Algorithm]fingerprint.Fingerprint)
	}
	c.entries[algo] = fp
}

// Len returns the number of recorded entries.
func (c *Cache) Len() int { return len(c.entries) }

// Snapshot renders the cache in its persisted shape: algorithm identifier to
// tagged fingerprint string.
func (c *Cache) Snapshot() map[string]string {
	out := make(map[string]string, len(c.entries))
	for algo, fp := range c.entries {
		out[string(algo)] = fp.String()
	}
	return out
}

// Load hydrates the cache from a persisted snapshot. Untagged values are
// normalized to tagged form under their map key; entries that do not parse
// are skipped with a diagnostic rather than poisoning the cache.
func (c *Cache) Load(snapshot map[string]string) {
	for key, raw := range snapshot {
		algo, err := fingerprint.ParseAlgorithm(key)
		if err != nil {
			slog.Warn("skipping cached fingerprint with unknown algorithm", "algorithm", key)
			continue
		}
		if fingerprint.IsTagged(raw) {
			fp, err := fingerprint.Parse(raw)
			if err != nil {
				slog.Warn("skipping unparseable cached fingerprint", "algorithm", key, "value", raw)
				continue
			}
			c.Set(algo, fp)
			continue
		}
		c.Set(algo, fingerprint.New(algo, raw))
	}
}
