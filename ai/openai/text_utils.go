package openai

import "strings"

// scrubQuery removes punctuation that never appears in city names and
// collapses whitespace. Hyphens and apostrophes are kept
// ("Rostov-na-Donu", "L'Aquila").
func scrubQuery(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(".,!?;:\"()[]{}", r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// matchFold returns the candidate equal to name under Unicode case folding.
func matchFold(candidates []string, name string) (string, bool) {
	for _, c := range candidates {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
