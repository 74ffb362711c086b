// Package store persists run history and the geocode cache, backed by
// SQLite for single-machine use or PostgreSQL for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/eudatnat/harvest-cli/pkg/geocode"
)

// RunStatus is the lifecycle state of a harvest run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records one execution of a dataset pipeline.
type Run struct {
	ID         string     `json:"id"`
	Dataset    string     `json:"dataset"`
	Status     RunStatus  `json:"status"`
	RowCount   int        `json:"row_count"`
	Output     string     `json:"output,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Dataset string    `json:"dataset,omitempty"`
	Status  RunStatus `json:"status,omitempty"`
	Limit   int       `json:"limit,omitempty"`
}

// Store defines the persistence interface for run history and the
// geocode cache.
type Store interface {
	// Runs
	StartRun(ctx context.Context, dataset string) (*Run, error)
	CompleteRun(ctx context.Context, runID string, rowCount int, output string) error
	FailRun(ctx context.Context, runID string, cause error) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	// Geocode cache
	GetGeocode(ctx context.Context, key string) (*geocode.Result, bool, error)
	PutGeocode(ctx context.Context, key string, res *geocode.Result) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// geocodeCache adapts a Store to the geocode.Cache interface.
type geocodeCache struct {
	s Store
}

// GeocodeCache returns a geocode.Cache backed by the given store.
func GeocodeCache(s Store) geocode.Cache {
	return geocodeCache{s: s}
}

func (c geocodeCache) Get(ctx context.Context, key string) (*geocode.Result, bool, error) {
	return c.s.GetGeocode(ctx, key)
}

func (c geocodeCache) Put(ctx context.Context, key string, res *geocode.Result) error {
	return c.s.PutGeocode(ctx, key, res)
}
