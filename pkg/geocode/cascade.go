package geocode

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Cache stores geocode results keyed by address hash. Implemented by the
// run store; a nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string) (*Result, bool, error)
	Put(ctx context.Context, key string, r *Result) error
}

// Cascade tries geocode providers in order until one matches.
type Cascade struct {
	providers   []Provider
	cache       Cache
	concurrency int
}

// CascadeOption configures the Cascade.
type CascadeOption func(*Cascade)

// WithCache enables result caching.
func WithCache(c Cache) CascadeOption {
	return func(cc *Cascade) {
		cc.cache = c
	}
}

// WithBatchConcurrency sets the max parallel lookups for BatchGeocode.
func WithBatchConcurrency(n int) CascadeOption {
	return func(cc *Cascade) {
		if n > 0 {
			cc.concurrency = n
		}
	}
}

// NewCascade creates a Cascade that tries providers in order.
func NewCascade(providers []Provider, opts ...CascadeOption) *Cascade {
	c := &Cascade{
		providers:   providers,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode implements Client by trying each provider in order.
func (c *Cascade) Geocode(ctx context.Context, addr AddressInput) (*Result, error) {
	key := cacheKey(addr)

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, key)
		if err == nil && ok {
			return cached, nil
		}
	}

	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		result, err := p.Geocode(ctx, addr)
		if err != nil {
			zap.L().Debug("cascade: provider error, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}
		if result != nil && result.Matched {
			if c.cache != nil {
				_ = c.cache.Put(ctx, key, result)
			}
			return result, nil
		}
	}

	// All providers missed; cache the negative result too.
	noMatch := &Result{Matched: false, Source: "cascade"}
	if c.cache != nil {
		_ = c.cache.Put(ctx, key, noMatch)
	}
	return noMatch, nil
}

// BatchGeocode implements Client by geocoding addresses in parallel.
func (c *Cascade) BatchGeocode(ctx context.Context, addrs []AddressInput) ([]Result, error) {
	if len(addrs) == 0 {
		return nil, nil
	}

	for i := range addrs {
		if addrs[i].ID == "" {
			addrs[i].ID = fmt.Sprintf("%d", i)
		}
	}

	results := make([]Result, len(addrs))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.concurrency)

	for i, addr := range addrs {
		eg.Go(func() error {
			r, gcErr := c.Geocode(gCtx, addr)
			if gcErr != nil || r == nil {
				results[i] = Result{Matched: false, Source: "cascade"}
				return nil //nolint:nilerr // individual geocode failures don't fail the batch
			}
			results[i] = *r
			return nil
		})
	}

	_ = eg.Wait()
	return results, nil
}
