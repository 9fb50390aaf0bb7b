package story

import (
	"fmt"
	"strings"
	"unicode"
)

// syllableRange is the accepted syllable count per haiku line. It is the
// same for every supported language.
var syllableRange = [3][2]int{{4, 6}, {6, 8}, {4, 6}}

// CheckHaiku reports whether haiku has exactly three lines, plus any lines
// whose estimated syllable count falls outside the accepted range. The
// estimate is a heuristic, so issues are advisory.
func CheckHaiku(haiku, lang string) (ok bool, issues []string) {
	lines := nonEmptyLines(haiku)
	if len(lines) != 3 {
		return false, []string{fmt.Sprintf("haiku must have 3 lines, got %d", len(lines))}
	}
	for i, line := range lines {
		n := CountSyllables(line, lang)
		lo, hi := syllableRange[i][0], syllableRange[i][1]
		if n < lo || n > hi {
			issues = append(issues, fmt.Sprintf("line %d: %d syllables (expected %d-%d)", i+1, n, lo, hi))
		}
	}
	return true, issues
}

// CountSyllables estimates syllables by counting vowel groups per word.
// English words lose a silent final "e".
func CountSyllables(line, lang string) int {
	total := 0
	for _, word := range strings.FieldsFunc(strings.ToLower(line), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	}) {
		total += wordSyllables(word, lang)
	}
	return total
}

func wordSyllables(word, lang string) int {
	count := 0
	inVowel := false
	hasLetter := false
	for _, r := range word {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		v := isVowel(r)
		if v && !inVowel {
			count++
		}
		inVowel = v
	}
	if !hasLetter {
		return 0
	}
	if lang == "en" && count > 1 && strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiouyàáâäèéêëìíîïòóôöùúûüÿœæ", r)
}
