// Package normalize folds listing text into a comparable form for fuzzy matching.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// prolongedSound is the katakana long-vowel mark. Sellers use it
// inconsistently ("ルーシュカ" and "ルシュカ" name the same avatar).
const prolongedSound = 'ー'

var folder = cases.Fold()

// Text returns s with width and case folded, elongation marks removed,
// repeated latin vowels collapsed, and every run of non-alphanumerics
// replaced by a single space. A space is also put between a CJK run and an
// adjacent latin run, so "Rusk対応" yields the word "rusk".
//
//	"【Rusk】ルーシュカ専用" -> "rusk ルシュカ専用"
//	"Kuuko  Outfit!!"      -> "kuko outfit"
func Text(s string) string {
	s = norm.NFKC.String(width.Fold.String(s))
	s = folder.String(s)

	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	space := true
	for _, r := range s {
		switch {
		case r == prolongedSound:
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if isVowel(r) && r == prev {
				continue
			}
			if prev != 0 && isCJK(prev) != isCJK(r) {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
			prev = r
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
			prev = 0
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// Width folds fullwidth latin and halfwidth katakana to their canonical widths.
func Width(s string) string {
	return width.Fold.String(s)
}

// Tokens splits the normalized form of s into words.
func Tokens(s string) []string {
	return strings.Fields(Text(s))
}

// ContainsWord reports whether the normalized phrase occurs in the normalized
// blob on word boundaries. Both arguments must already be normalized.
func ContainsWord(blob, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+blob+" ", " "+phrase+" ")
}

// IsAlnumASCII reports whether s is made only of ASCII letters and digits.
func IsAlnumASCII(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
