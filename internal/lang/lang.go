// Package lang resolves ISO country and language codes used in dataset metadata.
package lang

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Country is a resolved ISO 3166-1 alpha-2 country.
type Country struct {
	Code string // "DE"
	Name string // "Germany"
}

// Language is a resolved ISO 639-1 language.
type Language struct {
	Code string // "de"
	Name string // "German"
}

// ParseCountry resolves a country code or name into a Country.
func ParseCountry(s string) (Country, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Country{}, eris.New("lang: empty country")
	}

	region, err := language.ParseRegion(s)
	if err != nil {
		return Country{}, eris.Wrapf(err, "lang: unknown country %q", s)
	}

	name := display.English.Regions().Name(region)
	if name == "" {
		name = region.String()
	}
	return Country{Code: region.String(), Name: name}, nil
}

// ParseLanguage resolves a language code into a Language.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Language{}, eris.New("lang: empty language")
	}

	tag, err := language.Parse(s)
	if err != nil {
		return Language{}, eris.Wrapf(err, "lang: unknown language %q", s)
	}

	base, _ := tag.Base()
	name := display.English.Languages().Name(base)
	if name == "" {
		name = base.String()
	}
	return Language{Code: base.String(), Name: name}, nil
}
