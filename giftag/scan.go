package giftag

import (
	"iter"
	"strings"
)

// Scanner recognizes a marker one rune at a time, so text split across
// styled runs can be checked without joining it into a single string.
// The zero value is ready to use.
type Scanner struct {
	state int // runes of markerOpen matched so far
	buf   strings.Builder
	found bool
	tag   Tag
}

// Accept feeds the next rune. It returns false once a complete marker has
// been seen; further runes are ignored until Reset.
func (s *Scanner) Accept(r rune) bool {
	if s.found {
		return false
	}
	if s.state == len(markerOpen) {
		if r == ']' {
			s.tag = ParseTag(s.buf.String())
			s.found = true
			return false
		}
		if r == '[' || r == '\n' {
			// An unterminated marker; start over.
			s.buf.Reset()
			s.state = 0
		} else {
			s.buf.WriteRune(r)
			return true
		}
	}
	if r == rune(markerOpen[s.state]) {
		s.state++
		return true
	}
	if r == '[' {
		s.state = 1
	} else {
		s.state = 0
	}
	return true
}

// Tag returns the marker found by Accept.
func (s *Scanner) Tag() (Tag, bool) {
	return s.tag, s.found
}

// Reset clears the scanner for reuse.
func (s *Scanner) Reset() {
	s.state = 0
	s.buf.Reset()
	s.found = false
	s.tag = Tag{}
}

// ScanRunes returns the first marker in seq, stopping the sequence as soon
// as it is complete.
func ScanRunes(seq iter.Seq[rune]) (Tag, bool) {
	var s Scanner
	for r := range seq {
		if !s.Accept(r) {
			break
		}
	}
	return s.Tag()
}

// Run is a span of text sharing one style.
type Run struct {
	Text  string
	Style any
}

// ScanRuns finds the first marker across a sequence of styled runs.
func ScanRuns(runs []Run) (Tag, bool) {
	return ScanRunes(func(yield func(rune) bool) {
		for _, run := range runs {
			for _, r := range run.Text {
				if !yield(r) {
					return
				}
			}
		}
	})
}

// Find returns the first marker in text.
func Find(text string) (Tag, bool) {
	if !strings.Contains(text, markerOpen) {
		return Tag{}, false
	}
	var s Scanner
	for _, r := range text {
		if !s.Accept(r) {
			break
		}
	}
	return s.Tag()
}

// FindAll returns every marker in text in order.
func FindAll(text string) []Tag {
	var out []Tag
	var s Scanner
	for _, r := range text {
		if !s.Accept(r) {
			if t, ok := s.Tag(); ok {
				out = append(out, t)
			}
			s.Reset()
		}
	}
	return out
}

// Strip removes every marker from text, leaving the surrounding words.
func Strip(text string) string {
	if !strings.Contains(text, markerOpen) {
		return text
	}
	var b strings.Builder
	for {
		i := strings.Index(text, markerOpen)
		if i < 0 {
			break
		}
		j := strings.IndexByte(text[i:], ']')
		if j < 0 {
			break
		}
		b.WriteString(text[:i])
		text = text[i+j+1:]
	}
	b.WriteString(text)
	return b.String()
}
