// Package geocode resolves addresses and place names to WGS84 coordinates
// via pluggable providers (Nominatim by default, GISCO and Google as
// alternates).
package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Client geocodes addresses.
type Client interface {
	// Geocode geocodes a single address.
	Geocode(ctx context.Context, addr AddressInput) (*Result, error)

	// BatchGeocode geocodes multiple addresses. Individual misses yield
	// unmatched results, never an error for the whole batch.
	BatchGeocode(ctx context.Context, addrs []AddressInput) ([]Result, error)
}

// AddressInput represents an address or free-form place to geocode.
type AddressInput struct {
	ID          string // optional identifier for batch correlation
	Street      string
	City        string
	Postcode    string
	CountryCode string // ISO 3166-1 alpha-2, used to bias the search
	Place       string // free-form fallback when no structured parts exist
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude  float64
	Longitude float64
	Source    string // provider name
	Quality   string // "rooftop", "range", "centroid", "approximate"
	Matched   bool
}

// Provider represents a single geocoding backend.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, addr AddressInput) (*Result, error)
	Available() bool
}

// formatPlace renders an address as a single query line.
func formatPlace(addr AddressInput) string {
	parts := []string{addr.Street, addr.Postcode, addr.City}
	var nonEmpty []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 0 {
		return strings.TrimSpace(addr.Place)
	}
	return strings.Join(nonEmpty, ", ")
}

// cacheKey hashes the query line and country so identical addresses hit
// the same cache row regardless of provider order.
func cacheKey(addr AddressInput) string {
	h := sha256.Sum256([]byte(strings.ToLower(formatPlace(addr)) + "|" + strings.ToLower(addr.CountryCode)))
	return hex.EncodeToString(h[:])
}
