package services

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// DefaultProfanity is the built-in word list, English and Filipino
var DefaultProfanity = []string{
	"fuck", "fucking", "shit", "bitch", "asshole", "bastard", "dick", "cunt", "motherfucker",
	"putangina", "tangina", "puta", "gago", "gaga", "bobo", "tanga", "ulol", "tarantado",
	"leche", "pakyu", "kupal", "hinayupak", "punyeta", "bwisit",
}

// wordGuard matches a rune that cannot be part of a word, in any script
const wordGuard = `[^\p{L}\p{N}_]`

// ProfanityFilter masks listed words, matched whole and case-insensitively.
// A listed word may contain symbols or non-ASCII letters.
type ProfanityFilter struct {
	re *regexp.Regexp
}

func NewProfanityFilter(words []string) *ProfanityFilter {
	words = lo.Uniq(lo.FilterMap(words, func(w string, _ int) (string, bool) {
		w = strings.ToLower(strings.TrimSpace(w))
		return regexp.QuoteMeta(w), w != ""
	}))
	if len(words) == 0 {
		return &ProfanityFilter{}
	}
	// longest first so alternation prefers "fucking" over "fuck"
	slices.SortFunc(words, func(a, b string) int { return len(b) - len(a) })
	pattern := `(?i)(?:^|` + wordGuard + `)(` + strings.Join(words, "|") + `)(?:$|` + wordGuard + `)`
	return &ProfanityFilter{re: regexp.MustCompile(pattern)}
}

// Clean replaces every listed word with asterisks of the same length
func (f *ProfanityFilter) Clean(s string) string {
	if f.re == nil {
		return s
	}
	var b strings.Builder
	last := 0
	// a match consumes its trailing guard, so resume at the end of the word
	for at := 0; at < len(s); {
		loc := f.re.FindStringSubmatchIndex(s[at:])
		if loc == nil {
			break
		}
		start, end := at+loc[2], at+loc[3]
		b.WriteString(s[last:start])
		b.WriteString(strings.Repeat("*", utf8.RuneCountInString(s[start:end])))
		last, at = end, end
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

// Contains reports whether s has any listed word
func (f *ProfanityFilter) Contains(s string) bool {
	return f.re != nil && f.re.MatchString(s)
}
