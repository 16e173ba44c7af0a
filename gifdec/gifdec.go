// Package gifdec decodes animated GIFs into fully composited RGBA frames.
//
// GIF frames are deltas drawn over a shared canvas. Decode replays every
// source frame onto one canvas, honoring each frame's disposal method, and
// snapshots the canvas for the frames it keeps.
package gifdec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"time"

	"golang.org/x/image/draw"
)

const (
	DefaultMaxFrames    = 120
	DefaultDelay        = 100 * time.Millisecond
	DefaultMaxDimension = 512
)

// ErrNoFrames is returned for a container without any images.
var ErrNoFrames = errors.New("gif has no frames")

type Options struct {
	// MaxFrames caps the number of frames returned. Longer animations are
	// sampled at an even step.
	MaxFrames int
	// DefaultDelay is used for frames with no usable delay.
	DefaultDelay time.Duration
	// MaxDimension downscales snapshots whose width or height exceeds it.
	// Zero keeps the native size.
	MaxDimension int
}

func DefaultOptions() Options {
	return Options{
		MaxFrames:    DefaultMaxFrames,
		DefaultDelay: DefaultDelay,
		MaxDimension: DefaultMaxDimension,
	}
}

// Result holds a decoded animation.
type Result struct {
	Frames []*image.RGBA
	// Delays are per-frame display times in milliseconds, parallel to Frames.
	Delays []int
	// Width and Height are the native canvas size.
	Width  int
	Height int
	// SourceFrames is the frame count reported by the container.
	SourceFrames int
}

// Total returns the sum of Delays.
func (r *Result) Total() int {
	t := 0
	for _, d := range r.Delays {
		t += d
	}
	return t
}

// Step returns the sampling step used to keep at most max of n frames.
func Step(n, max int) int {
	if max <= 0 || n <= max {
		return 1
	}
	return (n + max - 1) / max
}

// Decode parses data and returns the composited frames.
func Decode(data []byte, opts Options) (*Result, error) {
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = DefaultMaxFrames
	}
	if opts.DefaultDelay <= 0 {
		opts.DefaultDelay = DefaultDelay
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	n := len(g.Image)
	if n == 0 {
		return nil, ErrNoFrames
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
		bounds = image.Rect(0, 0, bounds.Max.X, bounds.Max.Y)
	}

	res := &Result{
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		SourceFrames: n,
	}
	step := Step(n, opts.MaxFrames)
	res.Frames = make([]*image.RGBA, 0, (n+step-1)/step)
	res.Delays = make([]int, 0, (n+step-1)/step)

	canvas := image.NewRGBA(bounds)
	var saved *image.RGBA
	defaultMS := int(opts.DefaultDelay / time.Millisecond)
	pending := 0

	for i, frame := range g.Image {
		rect := frame.Bounds().Intersect(bounds)
		disposal := disposalAt(g, i)

		if disposal == gif.DisposalPrevious {
			saved = copyRegion(canvas, rect)
		}
		draw.Draw(canvas, rect, frame, rect.Min, draw.Over)

		pending += delayAt(g, i, defaultMS)
		if i%step == 0 {
			res.Frames = append(res.Frames, snapshot(canvas, opts.MaxDimension))
			res.Delays = append(res.Delays, 0)
		}
		// A kept frame stands in for the skipped frames that follow it.
		res.Delays[len(res.Delays)-1] += pending
		pending = 0

		switch disposal {
		case gif.DisposalBackground:
			clearRect(canvas, rect)
		case gif.DisposalPrevious:
			if saved != nil {
				draw.Draw(canvas, rect, saved, rect.Min, draw.Src)
				saved = nil
			}
		}
	}
	return res, nil
}

// disposalAt returns frame i's disposal method, treating missing metadata
// as "leave in place".
func disposalAt(g *gif.GIF, i int) byte {
	if i < len(g.Disposal) {
		return g.Disposal[i]
	}
	return gif.DisposalNone
}

// delayAt returns frame i's delay in milliseconds. Delays of 0 or 1
// hundredths are treated as unset, as browsers do.
func delayAt(g *gif.GIF, i, def int) int {
	if i < len(g.Delay) && g.Delay[i] > 1 {
		return g.Delay[i] * 10
	}
	return def
}

func clearRect(img *image.RGBA, r image.Rectangle) {
	draw.Draw(img, r, image.Transparent, image.Point{}, draw.Src)
}

func copyRegion(img *image.RGBA, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(r)
	draw.Draw(out, r, img, r.Min, draw.Src)
	return out
}

// snapshot copies the canvas, downscaling it when it exceeds maxDim.
func snapshot(canvas *image.RGBA, maxDim int) *image.RGBA {
	b := canvas.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim > 0 && (w > maxDim || h > maxDim) {
		if w >= h {
			h = max(h*maxDim/w, 1)
			w = maxDim
		} else {
			w = max(w*maxDim/h, 1)
			h = maxDim
		}
		out := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(out, out.Bounds(), canvas, b, draw.Src, nil)
		return out
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(out.Pix, canvas.Pix)
	return out
}
