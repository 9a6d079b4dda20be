package translate

import "unicode"

// ContainsCJK reports whether s has at least one Han, Hiragana, Katakana or
// Hangul character. Only such strings are ever sent to a backend.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) {
			return true
		}
		// Halfwidth katakana and the prolonged sound mark sit outside the script tables.
		if r == 'ー' || (r >= 0xFF66 && r <= 0xFF9F) {
			return true
		}
	}
	return false
}
