package main

import (
	"bytes"
	"log"

	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var chatFont, chatFontBold text.Face
var fontGen uint32

func initFont() {
	fontGen++
	regular, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		log.Fatalf("failed to parse font: %v", err)
	}
	chatFont = &text.GoTextFace{
		Source: regular,
		Size:   gs.ChatFontSize * gs.UIScale,
	}

	bold, err := text.NewGoTextFaceSource(bytes.NewReader(gobold.TTF))
	if err != nil {
		log.Fatalf("failed to parse font: %v", err)
	}
	chatFontBold = &text.GoTextFace{
		Source: bold,
		Size:   gs.ChatFontSize * gs.UIScale,
	}
}
