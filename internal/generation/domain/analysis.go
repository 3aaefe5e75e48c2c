package domain

import (
	"strings"

	"golang.org/x/text/language"
)

// defaultLanguage is applied when a request or analysis carries no usable
// language tag.
const defaultLanguage = "en"

// Analysis is the structured result of the prompt/vision analysis phase.
type Analysis struct {
	MechanicType MechanicType
	Theme        string
	BrandName    string
	Branded      bool
	PaletteHint  string
	Prizes       []string
	OfferURL     string
	Language     string
}

// MechanicName returns a human-readable mechanic tag for metadata documents.
func (a Analysis) MechanicName() string {
	return string(a.MechanicType)
}

// NormalizeLanguage canonicalizes a BCP 47 language tag, falling back to the
// default when the value does not parse.
func NormalizeLanguage(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultLanguage
	}
	tag, err := language.Parse(value)
	if err != nil {
		return defaultLanguage
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return defaultLanguage
	}
	return base.String()
}
