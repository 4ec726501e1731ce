package tokenize

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tiktoken-go/tokenizer"
	"golang.org/x/sync/singleflight"
)

// DefaultEncoding is the subword vocabulary used when none is configured.
const DefaultEncoding = "cl100k_base"

// Counter returns the number of subword tokens a tokenizer produces for text.
type Counter interface {
	Count(text string) int
}

// CounterFunc adapts a plain function to Counter.
type CounterFunc func(text string) int

// Count implements Counter.
func (f CounterFunc) Count(text string) int { return f(text) }

// Lengther is the read side used by the group sorter.
type Lengther interface {
	Length(tag string) int
}

// Tiktoken counts tokens with a BPE vocabulary embedded in the binary.
type Tiktoken struct {
	codec tokenizer.Codec
}

// NewTiktoken loads the named encoding (e.g. "cl100k_base", "o200k_base").
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	codec, err := tokenizer.Get(tokenizer.Encoding(encoding))
	if err != nil {
		return nil, fmt.Errorf("tokenizer %s: %w", encoding, err)
	}
	return &Tiktoken{codec: codec}, nil
}

// Count returns the token count for text. Every non-empty string counts as at
// least one token so lengths stay positive even when encoding fails.
func (t *Tiktoken) Count(text string) int {
	ids, _, err := t.codec.Encode(text)
	if err != nil || len(ids) == 0 {
		return 1
	}
	return len(ids)
}

// Cache memoizes token lengths per tag for the lifetime of a run.
// It is safe for concurrent use; concurrent misses on the same tag share one
// tokenizer call.
type Cache struct {
	counter Counter
	lengths sync.Map // tag -> int
	flight  singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache wraps counter with a read-through cache.
func NewCache(counter Counter) *Cache {
	return &Cache{counter: counter}
}

// Length returns the cached token length of tag, computing it on first use.
func (c *Cache) Length(tag string) int {
	if v, ok := c.lengths.Load(tag); ok {
		c.hits.Add(1)
		return v.(int)
	}

	v, _, _ := c.flight.Do(tag, func() (any, error) {
		if v, ok := c.lengths.Load(tag); ok {
			return v, nil
		}
		c.misses.Add(1)
		n := c.counter.Count(tag)
		c.lengths.Store(tag, n)
		return n, nil
	})
	return v.(int)
}

// Stats holds cache counters.
type Stats struct {
	Hits   int64
	Misses int64
}

// Stats returns hit/miss counters. Misses equal tokenizer invocations.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
