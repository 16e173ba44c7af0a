// Package giftag reads and writes the inline [GIF:...] markers carried in
// chat text.
//
// A marker has the shape
//
//	[GIF:<ref>:W<width>:H<height>]
//
// where the width and height parts are optional and <ref> is either a
// literal URL or ID:<token> once the URL has been swapped for a registry
// token.
package giftag

import (
	"strconv"
	"strings"

	"gifchat/gifref"
)

const (
	markerOpen = "[GIF:"
	idPrefix   = "ID:"
)

// Tag is a parsed marker.
type Tag struct {
	// URL is set for literal references.
	URL string
	// Token is set when HasToken is true.
	Token    gifref.Token
	HasToken bool
	// Width and Height are zero when the marker carries no hint.
	Width  int
	Height int
}

// ParseTag parses the text between "[GIF:" and "]". Unparseable width,
// height or token parts are ignored.
func ParseTag(body string) Tag {
	var t Tag
	ref := body
	// Width/height hints trail the reference; peel them off from the right
	// so colons inside URLs are left alone.
	for {
		i := strings.LastIndexByte(ref, ':')
		if i < 0 {
			break
		}
		part := ref[i+1:]
		if len(part) < 2 || (part[0] != 'W' && part[0] != 'H') {
			break
		}
		n, err := strconv.Atoi(part[1:])
		if err != nil {
			break
		}
		if part[0] == 'W' {
			if t.Width != 0 {
				break
			}
			t.Width = n
		} else {
			if t.Height != 0 || t.Width != 0 {
				break
			}
			t.Height = n
		}
		ref = ref[:i]
	}
	if rest, ok := strings.CutPrefix(ref, idPrefix); ok {
		if tok, ok := gifref.ParseToken(rest); ok {
			t.Token = tok
			t.HasToken = true
		}
		return t
	}
	t.URL = ref
	return t
}

// Resolve returns the URL the tag points at. A token reference that the
// registry does not know resolves to nothing.
func (t Tag) Resolve(reg *gifref.Registry) (string, bool) {
	if t.HasToken {
		if reg == nil {
			return "", false
		}
		return reg.Lookup(t.Token)
	}
	if t.URL == "" {
		return "", false
	}
	return t.URL, true
}

// String formats the tag back into marker text.
func (t Tag) String() string {
	var b strings.Builder
	b.WriteString(markerOpen)
	if t.HasToken {
		b.WriteString(idPrefix)
		b.WriteString(t.Token.String())
	} else {
		b.WriteString(t.URL)
	}
	if t.Width > 0 {
		b.WriteString(":W")
		b.WriteString(strconv.Itoa(t.Width))
	}
	if t.Height > 0 {
		b.WriteString(":H")
		b.WriteString(strconv.Itoa(t.Height))
	}
	b.WriteByte(']')
	return b.String()
}

// Caps bounds the on-screen size of a GIF drawn without explicit hints.
type Caps struct {
	MaxWidth  int
	MaxHeight int
}

var (
	// ChatCaps fits a GIF into the chat overlay.
	ChatCaps = Caps{MaxWidth: 200, MaxHeight: 40}
	// ScreenCaps is used for the full chat screen.
	ScreenCaps = Caps{MaxWidth: 250, MaxHeight: 90}
)

// Fit returns the display size for a GIF whose first frame is nativeW by
// nativeH. Explicit hints on the tag win; otherwise the native size is
// scaled down into caps keeping the aspect ratio.
func Fit(nativeW, nativeH int, t Tag, caps Caps) (w, h int) {
	if t.Width > 0 && t.Height > 0 {
		return t.Width, t.Height
	}
	w, h = nativeW, nativeH
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if caps.MaxHeight > 0 && h > caps.MaxHeight {
		w = w * caps.MaxHeight / h
		h = caps.MaxHeight
	}
	if caps.MaxWidth > 0 && w > caps.MaxWidth {
		h = h * caps.MaxWidth / w
		w = caps.MaxWidth
	}
	return max(w, 1), max(h, 1)
}
