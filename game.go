package main

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/pkg/browser"
	dark "github.com/thiagokokada/dark-mode-go"
	clipboard "golang.design/x/clipboard"

	"gifchat/giftag"
)

const (
	initialWindowW = 800
	initialWindowH = 600
	chatMargin     = 8
)

var (
	gameCtx context.Context

	errShutdown = errors.New("shutdown")

	darkBG    = color.RGBA{0x1e, 0x1f, 0x22, 0xff}
	darkFG    = color.RGBA{0xe6, 0xe6, 0xe6, 0xff}
	lightBG   = color.RGBA{0xf4, 0xf4, 0xf2, 0xff}
	lightFG   = color.RGBA{0x1a, 0x1a, 0x1a, 0xff}
	consoleFG = color.RGBA{0xd0, 0x90, 0x40, 0xff}
	boxColor  = color.RGBA{0x80, 0x80, 0x80, 0x80}
)

type Game struct {
	bg, fg color.RGBA
	// hits are the GIF boxes of the last drawn frame, for click handling.
	hits   []gifHit
	layout layoutCache
}

func newGame() *Game {
	g := &Game{bg: darkBG, fg: darkFG}
	if !useDarkTheme() {
		g.bg, g.fg = lightBG, lightFG
	}
	return g
}

func useDarkTheme() bool {
	switch gs.Theme {
	case "dark":
		return true
	case "light":
		return false
	}
	isDark, err := dark.IsDarkMode()
	if err != nil {
		logDebug("dark mode detection: %v", err)
		return true
	}
	return isDark
}

func (g *Game) Update() error {
	select {
	case <-gameCtx.Done():
		return errShutdown
	default:
	}

	// Decoded GIFs become drawable only here, on the thread that owns the
	// graphics context.
	if gifs != nil && gifs.manager != nil {
		gifs.manager.Drain(gs.UploadsPerFrame)
	}

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		if b := clipboard.Read(clipboard.FmtText); len(b) > 0 {
			chatMessage(string(b))
		}
	}

	if gs.ClickToOpen && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if url, ok := hitTest(g.hits, image.Pt(x, y)); ok {
			logDebug("opening %v", url)
			if err := browser.OpenURL(url); err != nil {
				logError("open %v: %v", url, err)
			}
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.bg)
	now := time.Now()
	scale := gs.UIScale
	lineStep := float64(gs.LineHeight) * scale
	sh := screen.Bounds().Dy()

	// Status lines pinned to the top.
	top := float64(chatMargin)
	console := getConsoleMessages()
	if n := gs.ConsoleLines; len(console) > n {
		console = console[len(console)-n:]
	}
	for _, line := range console {
		drawText(screen, line, chatFont, float64(chatMargin), top, consoleFG)
		top += lineStep
	}

	avail := float64(sh-chatMargin) - top
	maxRows := int(avail / lineStep)
	if maxRows < 0 {
		maxRows = 0
	}
	wrapWidth := float64(screen.Bounds().Dx() - 2*chatMargin)
	rows := g.layout.get(chatLog.Generation(), maxRows, wrapWidth, func() []chatRow {
		return layoutChat(getChatMessages(), maxRows, func(s string) []string {
			return wrapLine(s, chatFont, wrapWidth)
		})
	})
	y := float64(sh-chatMargin) - float64(len(rows))*lineStep

	g.hits = g.hits[:0]
	for _, row := range rows {
		x := float64(chatMargin)
		if row.HasGIF {
			x += g.drawGIF(screen, row.Tag, x, y, now)
		}
		if row.Text != "" {
			drawText(screen, row.Text, chatFont, x, y, g.fg)
		}
		y += lineStep
	}
}

// drawGIF draws the GIF for t with its top left at x, y and returns the
// horizontal space it took.
func (g *Game) drawGIF(dst *ebiten.Image, t giftag.Tag, x, y float64, now time.Time) float64 {
	if gifs == nil {
		return 0
	}
	url, ok := gifs.sourceURL(t)
	if !ok {
		// Unknown token: nothing to draw.
		return 0
	}
	scale := gs.UIScale
	var w, h int
	var frame *ebiten.Image
	if gifs.manager != nil {
		frame, ok = gifs.manager.Frame(url, now)
		if md, known := gifs.manager.Metadata(url); known && md.Failed {
			return 0
		} else if known && !md.Loading {
			w, h = giftag.Fit(md.Width, md.Height, t, chatCaps())
		}
	}
	if w == 0 || h == 0 {
		w, h = placeholderSize(t)
	}
	bw, bh := float64(w)*scale, float64(h)*scale
	if ok && frame != nil {
		drawScaled(dst, frame, x, y, bw, bh)
	} else {
		vector.StrokeRect(dst, float32(x), float32(y), float32(bw), float32(bh), 1, boxColor, false)
	}
	g.hits = append(g.hits, gifHit{
		rect: image.Rect(int(x), int(y), int(x+bw), int(y+bh)),
		url:  url,
	})
	return bw + float64(chatMargin)
}

func drawText(dst *ebiten.Image, s string, face text.Face, x, y float64, clr color.Color) {
	if face == nil || s == "" {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(dst, s, face, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth >= 320 && outsideHeight >= 240 {
		if gs.WindowWidth != outsideWidth || gs.WindowHeight != outsideHeight {
			gs.WindowWidth = outsideWidth
			gs.WindowHeight = outsideHeight
			settingsDirty = true
		}
	}
	return outsideWidth, outsideHeight
}

func runGame(ctx context.Context) {
	gameCtx = ctx

	ebiten.SetWindowTitle("gifchat")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(ebiten.SyncWithFPS)

	if err := ebiten.RunGame(newGame()); err != nil && !errors.Is(err, errShutdown) {
		log.Printf("ebiten: %v", err)
	}
	if settingsDirty {
		saveSettings()
	}
}
