package translate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingTranslator brackets values and counts how many it was asked to
// translate.
type countingTranslator struct {
	calls  int
	values int
}

func (c *countingTranslator) Name() string    { return "counting" }
func (c *countingTranslator) Available() bool { return true }

func (c *countingTranslator) Translate(_ context.Context, texts []string, _, _ string) ([]string, error) {
	c.calls++
	c.values += len(texts)
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = "[" + t + "]"
	}
	return out, nil
}

func TestMemo_TranslatesDistinctValuesOnce(t *testing.T) {
	inner := &countingTranslator{}
	m := NewMemo(inner)

	out, err := m.Translate(context.Background(), []string{"Krankenhaus", "Klinik", "Krankenhaus"}, "de", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"[Krankenhaus]", "[Klinik]", "[Krankenhaus]"}, out)
	assert.Equal(t, 2, inner.values)

	// Second call is served fully from the cache.
	out, err = m.Translate(context.Background(), []string{"Klinik", "Krankenhaus"}, "de", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"[Klinik]", "[Krankenhaus]"}, out)
	assert.Equal(t, 1, inner.calls)
}

func TestMemo_CacheIsPerLanguagePair(t *testing.T) {
	inner := &countingTranslator{}
	m := NewMemo(inner)

	_, err := m.Translate(context.Background(), []string{"Klinik"}, "de", "en")
	require.NoError(t, err)
	_, err = m.Translate(context.Background(), []string{"Klinik"}, "de", "fr")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestStatic_Translate(t *testing.T) {
	s := NewStatic(map[string]string{"Krankenhaus": "hospital"})

	out, err := s.Translate(context.Background(), []string{"Krankenhaus", "unknown"}, "de", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"hospital", "unknown"}, out)
	assert.True(t, s.Available())
}

func TestParseTranslatedArray(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{"plain array", `["a", "b"]`, []string{"a", "b"}, false},
		{"fenced", "```json\n[\"a\"]\n```", []string{"a"}, false},
		{"with prose", `Here you go: ["hospital", "clinic"] as requested.`, []string{"hospital", "clinic"}, false},
		{"no array", "sorry, cannot help", nil, true},
		{"malformed", `[1, 2]`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTranslatedArray(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnthropic_Availability(t *testing.T) {
	assert.False(t, NewAnthropic("", "m").Available())
	assert.True(t, NewAnthropic("key", "m").Available())
}
