package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Class identifies which pattern produced a Candidate.
type Class int

const (
	ClassURL Class = iota
	ClassDoubleCompound
	ClassCompound
	ClassNewline
	ClassMention
	ClassTag
	ClassContraction
	ClassWord
	ClassOther
)

func (c Class) String() string {
	switch c {
	case ClassURL:
		return "url"
	case ClassDoubleCompound:
		return "double-compound"
	case ClassCompound:
		return "compound"
	case ClassNewline:
		return "newline"
	case ClassMention:
		return "mention"
	case ClassTag:
		return "tag"
	case ClassContraction:
		return "contraction"
	case ClassWord:
		return "word"
	case ClassOther:
		return "other"
	default:
		return "unknown"
	}
}

// Candidate is a raw token extracted by Scan, case preserved.
type Candidate struct {
	Text  string
	Class Class
}

// matcher reports the byte length of a match of its class starting at
// s[0], or 0 when it does not match.
type matcher struct {
	class Class
	match func(s string) int
}

// matchers are tried in order at every scan position; the first one that
// matches wins regardless of how long a later matcher's match would be.
var matchers = []matcher{
	{ClassURL, matchURL},
	{ClassDoubleCompound, matchDoubleCompound},
	{ClassCompound, matchCompound},
	{ClassNewline, matchEscapedNewline},
	{ClassMention, matchMention},
	{ClassTag, matchTag},
	{ClassContraction, matchContraction},
	{ClassWord, wordRun},
	{ClassOther, matchNonSpace},
}

// Scan splits a sentence into candidates. Whitespace is skipped and never
// produces a candidate.
func Scan(sentence string) []Candidate {
	candidates := make([]Candidate, 0, len(sentence)/4)
	pos := 0
	for pos < len(sentence) {
		r, size := utf8.DecodeRuneInString(sentence[pos:])
		if unicode.IsSpace(r) {
			pos += size
			continue
		}
		rest := sentence[pos:]
		for _, m := range matchers {
			if n := m.match(rest); n > 0 {
				candidates = append(candidates, Candidate{Text: rest[:n], Class: m.class})
				pos += n
				break
			}
		}
	}
	return candidates
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// wordRun returns the length of the leading run of word characters.
func wordRun(s string) int {
	n := 0
	for n < len(s) && isWordByte(s[n]) {
		n++
	}
	return n
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// urlChar returns how many bytes of s form one URL body unit.
func urlChar(s string) int {
	b := s[0]
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return 1
	case b >= '$' && b <= '_':
		return 1
	case strings.IndexByte("!*(),", b) >= 0:
		if len(s) >= 4 && s[1] == '%' && isHex(s[2]) && isHex(s[3]) {
			return 4
		}
	}
	return 0
}

func matchURL(s string) int {
	var n int
	switch {
	case len(s) >= 8 && strings.EqualFold(s[:8], "https://"):
		n = 8
	case len(s) >= 7 && strings.EqualFold(s[:7], "http://"):
		n = 7
	default:
		return 0
	}
	start := n
	for n < len(s) {
		k := urlChar(s[n:])
		if k == 0 {
			break
		}
		n += k
	}
	if n == start {
		return 0
	}
	return n
}

// hyphenated returns the end of "word-word" starting at s[0] together with
// the length of the second run, or 0 when s does not start with one.
func hyphenated(s string) (end, second int) {
	first := wordRun(s)
	if first == 0 || first >= len(s) || s[first] != '-' {
		return 0, 0
	}
	second = wordRun(s[first+1:])
	if second == 0 {
		return 0, 0
	}
	return first + 1 + second, second
}

// matchDoubleCompound matches two back-to-back "word-word" pairs. The pairs
// share the middle run, which is split between them, so it needs at least
// two characters.
func matchDoubleCompound(s string) int {
	end, middle := hyphenated(s)
	if end == 0 || middle < 2 || end >= len(s) || s[end] != '-' {
		return 0
	}
	last := wordRun(s[end+1:])
	if last == 0 {
		return 0
	}
	return end + 1 + last
}

func matchCompound(s string) int {
	end, _ := hyphenated(s)
	return end
}

func matchEscapedNewline(s string) int {
	if strings.HasPrefix(s, `\n`) {
		return 2
	}
	return 0
}

func matchMention(s string) int {
	if s[0] != '@' {
		return 0
	}
	n := wordRun(s[1:])
	if n == 0 {
		return 0
	}
	return 1 + n
}

func matchTag(s string) int {
	if s[0] != '<' {
		return 0
	}
	end := strings.IndexByte(s[1:], '>')
	if end < 1 {
		return 0
	}
	return end + 2
}

func matchContraction(s string) int {
	n := wordRun(s)
	if n == 0 || n+1 >= len(s) || s[n] != '\'' || !isWordByte(s[n+1]) {
		return 0
	}
	return n + 2
}

func matchNonSpace(s string) int {
	r, size := utf8.DecodeRuneInString(s)
	if unicode.IsSpace(r) {
		return 0
	}
	return size
}
