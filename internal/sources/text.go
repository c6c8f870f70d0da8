package sources

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTextLength caps long free-text fields such as label sections and summaries.
const MaxTextLength = 2000

// ShortTermLength is the longest term that must match a whole word.
const ShortTermLength = 5

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// TermMatches reports whether text is relevant to term. Upstream search
// services match loosely, so short terms must appear as a whole word
// ("stat" must not match "stature") while longer terms need only appear
// as a case-insensitive substring.
func TermMatches(term, text string) bool {
	t := strings.ToLower(strings.TrimSpace(term))
	txt := strings.ToLower(text)
	if t == "" || txt == "" {
		return false
	}
	if utf8.RuneCountInString(t) > ShortTermLength {
		return strings.Contains(txt, t)
	}

	for offset := 0; offset <= len(txt)-len(t); {
		i := strings.Index(txt[offset:], t)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(t)
		if boundaryBefore(txt, start, t) && boundaryAfter(txt, end, t) {
			return true
		}
		_, size := utf8.DecodeRuneInString(txt[start:])
		offset = start + size
	}
	return false
}

// boundaryBefore mirrors a regex \b at start: a boundary exists when the
// word-ness of the previous rune differs from the term's first rune.
func boundaryBefore(s string, start int, term string) bool {
	first, _ := utf8.DecodeRuneInString(term)
	if start == 0 {
		return isWord(first)
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:start])
	return isWord(prev) != isWord(first)
}

func boundaryAfter(s string, end int, term string) bool {
	last, _ := utf8.DecodeLastRuneInString(term)
	if end >= len(s) {
		return isWord(last)
	}
	next, _ := utf8.DecodeRuneInString(s[end:])
	return isWord(next) != isWord(last)
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Truncate shortens s to MaxTextLength runes, appending "..." when cut.
func Truncate(s string) string {
	return TruncateTo(s, MaxTextLength)
}

// TruncateTo shortens s to n runes, appending "..." when cut.
func TruncateTo(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// StripHTML removes markup, decodes entities and collapses whitespace.
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
