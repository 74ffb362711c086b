// Package writer serialises formatted frames to the supported output
// formats: csv, json, geojson, xlsx, and shp.
package writer

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/eudatnat/harvest-cli/internal/frame"
)

// ErrUnsupportedFormat is returned when save is asked for a format the
// registry does not know.
var ErrUnsupportedFormat = eris.New("writer: unsupported output format")

// Options configure a save operation.
type Options struct {
	Delimiter rune   // csv only, default ','
	LatCol    string // geographic formats
	LonCol    string
}

// Writer serialises a frame to a file.
type Writer interface {
	Format() string
	Save(fr *frame.Frame, path string, opts Options) error
}

// Registry maps format keys to writers.
type Registry struct {
	writers map[string]Writer
}

// NewRegistry creates a registry with all built-in writers.
func NewRegistry() *Registry {
	r := &Registry{writers: make(map[string]Writer)}
	r.Register(CSVWriter{})
	r.Register(JSONWriter{})
	r.Register(GeoJSONWriter{})
	r.Register(XLSXWriter{})
	r.Register(SHPWriter{})
	return r
}

// Register adds a writer to the registry.
func (r *Registry) Register(w Writer) {
	r.writers[w.Format()] = w
}

// Get returns the writer for a format key.
func (r *Registry) Get(format string) (Writer, error) {
	w, ok := r.writers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, eris.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
	return w, nil
}

// Formats returns the registered format keys, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.writers))
	for k := range r.writers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
