package geocode

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider geocodes from a fixed map keyed by city name.
type fakeProvider struct {
	name      string
	results   map[string]Result
	err       error
	available bool

	mu    sync.Mutex
	calls int
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) Available() bool { return f.available }

func (f *fakeProvider) Geocode(_ context.Context, addr AddressInput) (*Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[addr.City]; ok {
		r.Source = f.name
		return &r, nil
	}
	return &Result{Matched: false, Source: f.name}, nil
}

// memCache is an in-memory Cache for tests.
type memCache struct {
	mu sync.Mutex
	m  map[string]*Result
}

func newMemCache() *memCache { return &memCache{m: make(map[string]*Result)} }

func (c *memCache) Get(_ context.Context, key string) (*Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.m[key]
	return r, ok, nil
}

func (c *memCache) Put(_ context.Context, key string, r *Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = r
	return nil
}

func TestCascade_FirstProviderWins(t *testing.T) {
	first := &fakeProvider{name: "first", available: true, results: map[string]Result{
		"Kiel": {Latitude: 54.3, Longitude: 10.1, Quality: "centroid", Matched: true},
	}}
	second := &fakeProvider{name: "second", available: true}

	c := NewCascade([]Provider{first, second})
	res, err := c.Geocode(context.Background(), AddressInput{City: "Kiel"})
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "first", res.Source)
	assert.Equal(t, 0, second.calls)
}

func TestCascade_FallsThroughOnMissAndError(t *testing.T) {
	failing := &fakeProvider{name: "failing", available: true, err: eris.New("boom")}
	missing := &fakeProvider{name: "missing", available: true}
	last := &fakeProvider{name: "last", available: true, results: map[string]Result{
		"Kiel": {Latitude: 54.3, Longitude: 10.1, Matched: true},
	}}

	c := NewCascade([]Provider{failing, missing, last})
	res, err := c.Geocode(context.Background(), AddressInput{City: "Kiel"})
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, "last", res.Source)
}

func TestCascade_SkipsUnavailableProviders(t *testing.T) {
	off := &fakeProvider{name: "off", available: false, results: map[string]Result{
		"Kiel": {Matched: true},
	}}

	c := NewCascade([]Provider{off})
	res, err := c.Geocode(context.Background(), AddressInput{City: "Kiel"})
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, 0, off.calls)
}

func TestCascade_CachesResults(t *testing.T) {
	p := &fakeProvider{name: "p", available: true, results: map[string]Result{
		"Kiel": {Latitude: 54.3, Longitude: 10.1, Matched: true},
	}}
	cache := newMemCache()

	c := NewCascade([]Provider{p}, WithCache(cache))
	for i := 0; i < 3; i++ {
		res, err := c.Geocode(context.Background(), AddressInput{City: "Kiel"})
		require.NoError(t, err)
		assert.True(t, res.Matched)
	}
	assert.Equal(t, 1, p.calls)
}

func TestCascade_CachesNegativeResults(t *testing.T) {
	p := &fakeProvider{name: "p", available: true}
	cache := newMemCache()

	c := NewCascade([]Provider{p}, WithCache(cache))
	for i := 0; i < 2; i++ {
		res, err := c.Geocode(context.Background(), AddressInput{City: "Nowhere"})
		require.NoError(t, err)
		assert.False(t, res.Matched)
	}
	assert.Equal(t, 1, p.calls)
}

func TestCascade_BatchGeocode(t *testing.T) {
	p := &fakeProvider{name: "p", available: true, results: map[string]Result{
		"Kiel":    {Latitude: 54.3, Longitude: 10.1, Matched: true},
		"Hamburg": {Latitude: 53.55, Longitude: 9.99, Matched: true},
	}}

	c := NewCascade([]Provider{p}, WithBatchConcurrency(2))
	results, err := c.BatchGeocode(context.Background(), []AddressInput{
		{City: "Kiel"},
		{City: "Nowhere"},
		{City: "Hamburg"},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].Matched)
	assert.False(t, results[1].Matched)
	assert.True(t, results[2].Matched)
	assert.InDelta(t, 53.55, results[2].Latitude, 1e-9)
}

func TestCascade_BatchEmpty(t *testing.T) {
	c := NewCascade(nil)
	results, err := c.BatchGeocode(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}
