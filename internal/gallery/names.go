package gallery

import (
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/Karshmistry/CrimAII/internal/constants"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallbackName is used when a name has no filename-safe characters left.
const fallbackName = "case"

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// SafeName turns a person's name into a filename stem: whitespace runs become
// underscores, diacritics are dropped, and only [A-Za-z0-9._-] is kept.
func SafeName(name string) string {
	name = strings.Join(strings.Fields(RemoveDiacritics(name)), "_")

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return fallbackName
	}
	return out
}

// Extension returns the lower-cased extension of an uploaded filename,
// or the default image extension when there is none.
func Extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ext == "" || ext == "." {
		return constants.DefaultImageExtension
	}
	return ext
}

// Stem builds the stored filename stem for a case registered at t.
func Stem(name string, t time.Time) string {
	return SafeName(name) + "_" + t.UTC().Format(constants.FilenameTimeLayout)
}
