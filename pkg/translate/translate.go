// Package translate converts column values between languages via pluggable
// providers.
package translate

import (
	"context"
	"sync"
)

// Translator translates a batch of values between two languages. Output
// order matches input order.
type Translator interface {
	Name() string
	Translate(ctx context.Context, texts []string, source, target string) ([]string, error)
	Available() bool
}

// Memo wraps a Translator and translates each distinct value only once.
// Harvested columns repeat values heavily (facility types, city names), so
// this cuts provider calls by orders of magnitude.
type Memo struct {
	inner Translator

	mu    sync.Mutex
	cache map[string]string
}

// NewMemo creates a memoising wrapper around the given translator.
func NewMemo(inner Translator) *Memo {
	return &Memo{
		inner: inner,
		cache: make(map[string]string),
	}
}

// Name implements Translator.
func (m *Memo) Name() string { return m.inner.Name() }

// Available implements Translator.
func (m *Memo) Available() bool { return m.inner.Available() }

// Translate implements Translator. Only distinct values missing from the
// cache are forwarded to the inner translator.
func (m *Memo) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	prefix := source + "|" + target + "|"

	m.mu.Lock()
	var missing []string
	seen := make(map[string]bool)
	for _, t := range texts {
		if _, ok := m.cache[prefix+t]; ok || seen[t] {
			continue
		}
		seen[t] = true
		missing = append(missing, t)
	}
	m.mu.Unlock()

	if len(missing) > 0 {
		translated, err := m.inner.Translate(ctx, missing, source, target)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		for i, v := range missing {
			if i < len(translated) {
				m.cache[prefix+v] = translated[i]
			}
		}
		m.mu.Unlock()
	}

	out := make([]string, len(texts))
	m.mu.Lock()
	for i, t := range texts {
		if cached, ok := m.cache[prefix+t]; ok {
			out[i] = cached
		} else {
			out[i] = t
		}
	}
	m.mu.Unlock()
	return out, nil
}
