package frame

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Kind is the declared type of a harmonised column.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindDate   Kind = "date"
)

// ParseKind validates a kind name from metadata. An empty name means string.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindString:
		return KindString, nil
	case KindInt:
		return KindInt, nil
	case KindFloat:
		return KindFloat, nil
	case KindBool:
		return KindBool, nil
	case KindDate:
		return KindDate, nil
	default:
		return "", eris.Errorf("frame: unknown column type %q", s)
	}
}

// dateLayouts are tried in order when casting date columns. The first is
// also the normalised output layout.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02.01.2006",
	"2006/01/02",
	time.RFC3339,
}

// CastColumn normalises every cell of the named column to the canonical
// representation of the given kind. Cells that cannot be cast are cleared;
// their row indices are returned. Empty cells are left untouched.
func (f *Frame) CastColumn(name string, kind Kind) ([]int, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, eris.Errorf("frame: unknown column %q", name)
	}
	if kind == KindString {
		return nil, nil
	}

	var bad []int
	for r, row := range f.rows {
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			row[i] = ""
			continue
		}

		norm, err := castCell(cell, kind)
		if err != nil {
			row[i] = ""
			bad = append(bad, r)
			continue
		}
		row[i] = norm
	}
	return bad, nil
}

func castCell(cell string, kind Kind) (string, error) {
	switch kind {
	case KindInt:
		n, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return "", eris.Wrapf(err, "cast %q to int", cell)
		}
		return strconv.FormatInt(n, 10), nil

	case KindFloat:
		v, err := parseFloat(cell)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil

	case KindBool:
		b, err := strconv.ParseBool(strings.ToLower(cell))
		if err != nil {
			return "", eris.Wrapf(err, "cast %q to bool", cell)
		}
		return strconv.FormatBool(b), nil

	case KindDate:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, cell); err == nil {
				return t.Format(dateLayouts[0]), nil
			}
		}
		return "", eris.Errorf("cast %q to date", cell)

	default:
		return cell, nil
	}
}

// parseFloat accepts both point and comma decimal separators, which national
// sources mix freely.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return v, nil
	}
	v, err = strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "cast %q to float", s)
	}
	return v, nil
}
