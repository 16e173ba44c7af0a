package main

import (
	"strings"

	text "github.com/hajimehoshi/ebiten/v2/text/v2"
)

// measureWidth measures s in face. A face without a font source, as used in
// tests, is approximated at 0.6em per rune.
func measureWidth(s string, face text.Face) float64 {
	if gf, ok := face.(*text.GoTextFace); ok && gf.Source == nil {
		return float64(len([]rune(s))) * gf.Size * 0.6
	}
	w, _ := text.Measure(s, face, 0)
	return w
}

// wrapLine splits a single chat row into rows no wider than maxWidth.
// Words stay whole unless one alone is too wide; runs of spaces are kept.
func wrapLine(s string, face text.Face, maxWidth float64) []string {
	if s == "" || maxWidth <= 0 || measureWidth(s, face) <= maxWidth {
		return []string{s}
	}
	var (
		rows []string
		cur  strings.Builder
		used float64
	)
	flush := func() {
		rows = append(rows, cur.String())
		cur.Reset()
		used = 0
	}
	for _, word := range strings.SplitAfter(s, " ") {
		if word == "" {
			continue
		}
		w := measureWidth(word, face)
		if used+w <= maxWidth {
			cur.WriteString(word)
			used += w
			continue
		}
		if cur.Len() > 0 {
			flush()
		}
		if w <= maxWidth {
			cur.WriteString(word)
			used = w
			continue
		}
		for _, r := range word {
			rw := measureWidth(string(r), face)
			if used+rw > maxWidth && cur.Len() > 0 {
				flush()
			}
			cur.WriteRune(r)
			used += rw
		}
	}
	if cur.Len() > 0 {
		flush()
	}
	return rows
}
