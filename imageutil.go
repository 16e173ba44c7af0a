package main

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// newImageFromImage uploads a decoded GIF frame. Frames are never read back,
// so they can live outside the managed atlas.
func newImageFromImage(src *image.RGBA) *ebiten.Image {
	return ebiten.NewImageFromImageWithOptions(src, &ebiten.NewImageFromImageOptions{Unmanaged: true})
}

// drawScaled draws img into the w by h box at x, y.
func drawScaled(dst, img *ebiten.Image, x, y, w, h float64) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	op.GeoM.Translate(x, y)
	dst.DrawImage(img, op)
}
