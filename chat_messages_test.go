package main

import (
	"strings"
	"testing"

	"gifchat/giftag"
)

func withChat(t *testing.T) {
	t.Helper()
	origGifs, origGS := gifs, gs
	gs = gsdef
	gifs = newCodec()
	chatLog = messageLog{max: maxChatMessages}
	t.Cleanup(func() {
		gifs = origGifs
		gs = origGS
		chatLog = messageLog{max: maxChatMessages}
	})
}

func TestChatMessageEncodesGIFs(t *testing.T) {
	withChat(t)
	chatMessage("look [GIF:https://media.example.com/cat.gif] nice")
	msgs := getChatMessages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	msg := msgs[0]
	if strings.Contains(msg, "https://") {
		t.Fatalf("literal url kept: %q", msg)
	}
	if !strings.HasPrefix(msg, "look \n[GIF:ID:") {
		t.Fatalf("message = %q", msg)
	}
	tag, ok := giftag.Find(msg)
	if !ok || !tag.HasToken {
		t.Fatalf("no token marker in %q", msg)
	}
	url, ok := gifs.sourceURL(tag)
	if !ok || url != "https://media.example.com/cat.gif" {
		t.Fatalf("token resolves to %q, %v", url, ok)
	}
	if tag.Width != giftag.DefaultWidth || tag.Height != giftag.DefaultHeight {
		t.Fatalf("size hint = %dx%d", tag.Width, tag.Height)
	}
}

func TestChatMessagePlainText(t *testing.T) {
	withChat(t)
	chatMessage("hello there  ")
	chatMessage("   ")
	msgs := getChatMessages()
	if len(msgs) != 1 || msgs[0] != "hello there" {
		t.Fatalf("messages = %q", msgs)
	}
}

func TestPostGIFHints(t *testing.T) {
	withChat(t)
	postGIF("https://media.example.com/a.gif", 80, 20)
	postGIF("", 10, 10)
	msgs := getChatMessages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	tag, ok := giftag.Find(msgs[0])
	if !ok || tag.Width != 80 || tag.Height != 20 {
		t.Fatalf("tag = %+v, %v", tag, ok)
	}
	// ceil(20/9)+1 blank lines reserve room under the GIF.
	if got := strings.Count(msgs[0], "\n"); got != 1+4 {
		t.Fatalf("newlines = %d in %q", got, msgs[0])
	}
}

func TestChatGIFs(t *testing.T) {
	withChat(t)
	chatMessage("[GIF:https://a.example/1.gif]")
	chatMessage("no gif")
	chatMessage("[GIF:https://a.example/2.gif] and [GIF:https://a.example/1.gif:W10:H10]")
	got := chatGIFs()
	want := []string{"https://a.example/1.gif", "https://a.example/2.gif"}
	if len(got) != len(want) {
		t.Fatalf("chatGIFs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chatGIFs = %v, want %v", got, want)
		}
	}
}

func TestChatTimestamps(t *testing.T) {
	withChat(t)
	gs.ChatTimestamps = true
	gs.TimestampFormat = "15:04"
	chatMessage("hi")
	msgs := getChatMessages()
	if len(msgs) != 1 || !strings.HasPrefix(msgs[0], "[") || !strings.HasSuffix(msgs[0], "] hi") {
		t.Fatalf("messages = %q", msgs)
	}
}

func TestMessageLogLimit(t *testing.T) {
	l := messageLog{max: 2}
	g0 := l.Generation()
	l.Add("a")
	l.Add("")
	l.Add("b")
	l.Add("c")
	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	if got := l.Entries("", false); got[0] != "b" || got[1] != "c" {
		t.Fatalf("entries = %q", got)
	}
	if l.Generation() != g0+3 {
		t.Fatalf("generation = %d, want %d", l.Generation(), g0+3)
	}
}

func TestConsoleMessage(t *testing.T) {
	consoleLog = messageLog{max: maxConsoleMessages}
	defer func() { consoleLog = messageLog{max: maxConsoleMessages} }()
	consoleMessage("")
	consoleMessage("GIF cache cleared")
	msgs := consoleLog.Entries("", false)
	if len(msgs) != 1 || msgs[0] != "GIF cache cleared" {
		t.Fatalf("console = %q", msgs)
	}
}
