package query

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer turns a typed search term into the backend's convention.
type Normalizer func(string) string

// StripDiacritics removes combining marks: "Administración" becomes
// "Administracion".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func snake(s string) string {
	return strings.Join(strings.Fields(StripDiacritics(s)), "_")
}

// UpperSnake is the role name convention: "Admin Role" -> "ADMIN_ROLE".
func UpperSnake(s string) string { return strings.ToUpper(snake(s)) }

func LowerSnake(s string) string { return strings.ToLower(snake(s)) }

// Verbatim only trims.
func Verbatim(s string) string { return strings.TrimSpace(s) }
