package fetcher

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/eudatnat/harvest-cli/internal/frame"
)

// ReadJSONArray parses a JSON array of flat objects into a frame. The
// column set is the union of keys in first-seen order; missing keys
// become empty cells.
func ReadJSONArray(r io.Reader) (*frame.Frame, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	tok, err := decoder.Token()
	if err != nil {
		return nil, eris.Wrap(err, "json: read opening token")
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '[' {
		return nil, eris.Errorf("json: expected array, got %v", tok)
	}

	var cols []string
	seen := make(map[string]bool)
	var records []map[string]string

	for decoder.More() {
		var obj map[string]json.RawMessage
		if err := decoder.Decode(&obj); err != nil {
			return nil, eris.Wrap(err, "json: decode element")
		}

		rec := make(map[string]string, len(obj))
		for key, raw := range obj {
			if !seen[key] {
				seen[key] = true
				cols = append(cols, key)
			}
			rec[key] = rawToString(raw)
		}
		records = append(records, rec)
	}

	if len(cols) == 0 {
		return nil, eris.New("json: array has no object elements")
	}

	fr := frame.New(cols)
	for _, rec := range records {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = rec[c]
		}
		if err := fr.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return fr, nil
}

// rawToString renders a scalar JSON value as a cell. Nested values keep
// their JSON encoding.
func rawToString(raw json.RawMessage) string {
	var v any
	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()
	if err := d.Decode(&v); err != nil {
		return string(raw)
	}
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return string(raw)
	}
}
