package naming

import (
	"strings"
	"unicode"
)

// latinFold maps accented Latin characters to their closest ASCII letter.
var latinFold = map[rune]rune{
	'Ç': 'C', 'ç': 'c',
	'Ñ': 'N', 'ñ': 'n',
}

func foldLatin(r rune) (rune, bool) {
	switch {
	case r >= 'À' && r <= 'Å':
		return 'A', true
	case r >= 'à' && r <= 'å':
		return 'a', true
	case r >= 'È' && r <= 'Ë':
		return 'E', true
	case r >= 'è' && r <= 'ë':
		return 'e', true
	case r >= 'Ì' && r <= 'Ï':
		return 'I', true
	case r >= 'ì' && r <= 'ï':
		return 'i', true
	case r >= 'Ò' && r <= 'Ö':
		return 'O', true
	case r >= 'ò' && r <= 'ö':
		return 'o', true
	case r >= 'Ù' && r <= 'Ü':
		return 'U', true
	case r >= 'ù' && r <= 'ü':
		return 'u', true
	}
	if folded, ok := latinFold[r]; ok {
		return folded, true
	}
	return 0, false
}

// SanitizeFilename reduces a client-supplied filename to a storage-key-safe
// ASCII form: accented Latin letters are folded to their base letter, other
// non-ASCII runes become "-", and path separators become "_" so a key can
// never climb out of its prefix.
func SanitizeFilename(filename string) string {
	if filename == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(filename))

	for _, r := range filename {
		switch {
		case r == '/' || r == '\\':
			result.WriteRune('_')
		case r < 128 && unicode.IsPrint(r):
			result.WriteRune(r)
		case unicode.Is(unicode.Latin, r):
			if folded, ok := foldLatin(r); ok {
				result.WriteRune(folded)
			} else {
				result.WriteRune('-')
			}
		default:
			result.WriteRune('-')
		}
	}

	return result.String()
}
