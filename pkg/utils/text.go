package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips diacritics so "Vía Pública" matches "via publica".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// HasWord reports whether any keyword occurs in folded text starting at a word
// boundary. Keywords may span several words. Both sides must already be folded.
func HasWord(folded string, keywords ...string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		from := 0
		for {
			i := strings.Index(folded[from:], kw)
			if i == -1 {
				break
			}
			i += from
			if i == 0 || !isWordRune(lastRune(folded[:i])) {
				return true
			}
			from = i + 1
		}
	}
	return false
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
