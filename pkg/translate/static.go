package translate

import "context"

// Static translates from a fixed dictionary. Values without an entry pass
// through unchanged. Used for offline runs and tests.
type Static struct {
	dict map[string]string
}

// NewStatic creates a Static translator over the given dictionary.
func NewStatic(dict map[string]string) *Static {
	if dict == nil {
		dict = make(map[string]string)
	}
	return &Static{dict: dict}
}

// Name implements Translator.
func (s *Static) Name() string { return "static" }

// Available implements Translator.
func (s *Static) Available() bool { return true }

// Translate implements Translator.
func (s *Static) Translate(_ context.Context, texts []string, _, _ string) ([]string, error) {
	out := make([]string, len(texts))
	for i, t := range texts {
		if v, ok := s.dict[t]; ok {
			out[i] = v
		} else {
			out[i] = t
		}
	}
	return out, nil
}
