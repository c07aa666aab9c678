// Package limiter slices ordered results by offset, limit and tail. It caps
// option categories in the search engine and the clause output of the CLI.
package limiter

import "fmt"

// Config holds the record-limiting parameters.
type Config struct {
	Limit  int // Keep only this many records (0 = unlimited)
	Offset int // Skip the first N records (0 = no skip)
	Tail   int // Keep only the last N records (0 = disabled); mutually exclusive with Limit
}

// Cap returns a Config keeping at most n records.
func Cap(n int) Config {
	return Config{Limit: n}
}

// Validate checks for conflicting flag combinations and returns an error if invalid.
// Rules:
// - Limit and Tail are mutually exclusive
// - If Tail is set, Offset is ignored
// - All numeric values must be non-negative
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("--offset must be non-negative, got %d", c.Offset)
	}
	if c.Tail < 0 {
		return fmt.Errorf("--tail must be non-negative, got %d", c.Tail)
	}
	if c.Limit > 0 && c.Tail > 0 {
		return fmt.Errorf("--limit and --tail are mutually exclusive")
	}
	return nil
}

// IsActive returns true if any limiting is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Bounds returns the [start, end) window the config selects from length records.
func (c Config) Bounds(length int) (start, end int) {
	if c.Tail > 0 {
		start = length - c.Tail
		if start < 0 {
			start = 0
		}
		return start, length
	}

	start = c.Offset
	if start > length {
		start = length
	}
	end = length
	if c.Limit > 0 && start+c.Limit < length {
		end = start + c.Limit
	}
	return start, end
}

// Slice applies the config to items. The result shares the backing array.
func Slice[T any](c Config, items []T) []T {
	if !c.IsActive() {
		return items
	}
	start, end := c.Bounds(len(items))
	return items[start:end]
}
