package main

import (
	"image"
	"strings"

	"gifchat/giftag"
)

// chatRow is one rendered line of the chat window.
type chatRow struct {
	Text   string
	Tag    giftag.Tag
	HasGIF bool
}

// layoutChat splits messages into rows with marker text removed, keeping
// only the newest maxRows (all when negative). Blank rows are kept: they
// hold the space a GIF is drawn over. wrap, if set, breaks long text rows.
func layoutChat(msgs []string, maxRows int, wrap func(string) []string) []chatRow {
	var rows []chatRow
	for _, msg := range msgs {
		for _, line := range strings.Split(msg, "\n") {
			if t, ok := giftag.Find(line); ok {
				rows = append(rows, chatRow{
					Text:   strings.TrimSpace(giftag.Strip(line)),
					Tag:    t,
					HasGIF: true,
				})
				continue
			}
			if wrap == nil {
				rows = append(rows, chatRow{Text: line})
				continue
			}
			for _, part := range wrap(line) {
				rows = append(rows, chatRow{Text: part})
			}
		}
	}
	if maxRows >= 0 && len(rows) > maxRows {
		rows = rows[len(rows)-maxRows:]
	}
	return rows
}

// layoutCache keeps the last chat layout until a message arrives or the
// space for it changes.
type layoutCache struct {
	valid   bool
	gen     uint64
	maxRows int
	width   float64
	rows    []chatRow
}

func (c *layoutCache) get(gen uint64, maxRows int, width float64, build func() []chatRow) []chatRow {
	if !c.valid || c.gen != gen || c.maxRows != maxRows || c.width != width {
		c.rows = build()
		c.valid, c.gen, c.maxRows, c.width = true, gen, maxRows, width
	}
	return c.rows
}

// gifHit remembers where a GIF was drawn so clicks can open its source.
type gifHit struct {
	rect image.Rectangle
	url  string
}

func hitTest(hits []gifHit, p image.Point) (string, bool) {
	// Later hits are drawn on top.
	for i := len(hits) - 1; i >= 0; i-- {
		if p.In(hits[i].rect) {
			return hits[i].url, true
		}
	}
	return "", false
}

// chatCaps returns the size limits for GIFs without explicit hints.
// Fullscreen chat has room for the larger screen limits.
func chatCaps() giftag.Caps {
	if gs.Fullscreen {
		return giftag.ScreenCaps
	}
	return giftag.Caps{MaxWidth: gs.ChatMaxWidth, MaxHeight: gs.ChatMaxHeight}
}

// placeholderSize is the space reserved for a GIF that has not loaded yet.
func placeholderSize(t giftag.Tag) (int, int) {
	w, h := t.Width, t.Height
	if w <= 0 {
		w = gs.DefaultWidth
	}
	if h <= 0 {
		h = gs.DefaultHeight
	}
	return w, h
}
