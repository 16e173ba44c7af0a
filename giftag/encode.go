package giftag

import (
	"regexp"
	"strconv"
	"strings"

	"gifchat/gifref"
)

// literalMarker matches a marker carrying a raw URL. The reference is
// non-greedy so the optional :W and :H suffixes are not swallowed.
var literalMarker = regexp.MustCompile(`\[GIF:(.*?)(?::W(\d+))?(?::H(\d+))?\]`)

// tokenMarker matches an encoded marker together with the line breaks
// Encode put around it.
var tokenMarker = regexp.MustCompile(`\n?\[GIF:ID:(\d+)((?::W\d+)?(?::H\d+)?)\]\n*`)

const (
	DefaultLineHeight = 9
	DefaultWidth      = 40
	DefaultHeight     = 40
)

// Encoder rewrites literal URL markers into token markers and reserves
// vertical space for the image below them.
type Encoder struct {
	Registry *gifref.Registry
	// LineHeight is the renderer's chat line height in pixels.
	LineHeight    int
	DefaultWidth  int
	DefaultHeight int
}

// NewEncoder returns an Encoder with the default sizes.
func NewEncoder(reg *gifref.Registry) *Encoder {
	return &Encoder{
		Registry:      reg,
		LineHeight:    DefaultLineHeight,
		DefaultWidth:  DefaultWidth,
		DefaultHeight: DefaultHeight,
	}
}

// SpacingLines is the number of blank lines reserved for an image of the
// given height.
func (e *Encoder) SpacingLines(height int) int {
	lh := e.LineHeight
	if lh <= 0 {
		lh = DefaultLineHeight
	}
	return (height+lh-1)/lh + 1
}

// Encode rewrites every literal marker in msg. Markers already holding a
// token are left as they are.
func (e *Encoder) Encode(msg string) string {
	if !strings.Contains(msg, markerOpen) {
		return msg
	}
	return literalMarker.ReplaceAllStringFunc(msg, func(m string) string {
		sub := literalMarker.FindStringSubmatch(m)
		ref := sub[1]
		if ref == "" || strings.HasPrefix(ref, idPrefix) {
			return m
		}
		tok := e.Registry.Register(ref)
		if tok == gifref.Invalid {
			return m
		}
		t := Tag{
			Token:    tok,
			HasToken: true,
			Width:    e.DefaultWidth,
			Height:   e.DefaultHeight,
		}
		if n, err := strconv.Atoi(sub[2]); err == nil && n > 0 {
			t.Width = n
		}
		if n, err := strconv.Atoi(sub[3]); err == nil && n > 0 {
			t.Height = n
		}
		return "\n" + t.String() + strings.Repeat("\n", e.SpacingLines(t.Height))
	})
}

// Expand turns token markers back into literal URL markers and drops the
// spacing lines, for text leaving the session such as transcripts. Tokens
// the registry does not know are left unchanged.
func (e *Encoder) Expand(msg string) string {
	if !strings.Contains(msg, markerOpen+idPrefix) {
		return msg
	}
	return tokenMarker.ReplaceAllStringFunc(msg, func(m string) string {
		sub := tokenMarker.FindStringSubmatch(m)
		tok, ok := gifref.ParseToken(sub[1])
		if !ok {
			return m
		}
		url, ok := e.Registry.Lookup(tok)
		if !ok {
			return m
		}
		return markerOpen + url + sub[2] + "]"
	})
}
