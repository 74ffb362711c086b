package meta

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadFile reads and validates one metadata file. The format is chosen by
// extension: .yaml/.yml or .json.
func LoadFile(path string) (*Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "meta: read %s", path)
	}

	var m Meta
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, eris.Wrapf(err, "meta: parse %s", path)
		}
	case ".json":
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, eris.Wrapf(err, "meta: parse %s", path)
		}
	default:
		return nil, eris.Errorf("meta: unsupported metadata file %s", path)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadDir loads every metadata file in a directory, sorted by dataset name.
func LoadDir(dir string) ([]*Meta, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "meta: read dir %s", dir)
	}

	var metas []*Meta
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		m, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
	return metas, nil
}
