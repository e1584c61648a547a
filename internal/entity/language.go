package entity

import "strings"

// Language is the preferred digest language of a subscriber.
type Language string

const (
	LanguageRU Language = "ru"
	LanguageEN Language = "en"

	DefaultLanguage = LanguageRU
)

// ParseLanguage maps a stored value onto a known language. Anything that is
// not Russian gets English, an empty value gets the default.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultLanguage
	case string(LanguageRU):
		return LanguageRU
	default:
		return LanguageEN
	}
}
