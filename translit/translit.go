// Package translit converts Russian Cyrillic to Latin script and folds
// strings for accent and case insensitive comparison.
package translit

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "j", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "'", 'ы': "y", 'ь': "'", 'э': "e", 'ю': "ju", 'я': "ja",
}

// ToLatin transliterates Russian Cyrillic letters to Latin. Uppercase
// letters map to capitalized sequences ("Ж" to "Zh"). Other runes are
// copied unchanged.
func ToLatin(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		latin, ok := cyrillicToLatin[unicode.ToLower(r)]
		if !ok {
			b.WriteRune(r)
			continue
		}
		if unicode.IsUpper(r) {
			first := []rune(latin)
			first[0] = unicode.ToUpper(first[0])
			latin = string(first)
		}
		b.WriteString(latin)
	}
	return b.String()
}

// Fold lowercases s, strips diacritics and trims surrounding space, so
// that "Astana", "ASTANA" and "Astaná" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return folded
}

// IsCyrillic reports whether s contains at least one Cyrillic letter.
func IsCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}
