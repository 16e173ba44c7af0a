package main

import (
	"fmt"
	"strings"

	"gifchat/giftag"
)

const (
	maxChatMessages = 1000
)

var chatLog = messageLog{max: maxChatMessages}

// chatMessage receives a message from the chat transport. Literal GIF links
// are rewritten to compact token markers before the message is stored, and
// the GIFs start loading so they are ready by the time the line is drawn.
func chatMessage(msg string) {
	msg = strings.TrimRight(msg, " \t")
	if msg == "" {
		return
	}
	if gifs != nil {
		msg = gifs.encoder.Encode(msg)
		gifs.prefetch(msg)
	}
	chatLog.Add(msg)
	appendChatLog(msg)
	logDebug("chat: %q", msg)
}

// postGIF sends url as a GIF message, optionally with a size hint.
func postGIF(url string, w, h int) {
	if url == "" {
		return
	}
	marker := "[GIF:" + url
	if w > 0 {
		marker += fmt.Sprintf(":W%d", w)
	}
	if h > 0 {
		marker += fmt.Sprintf(":H%d", h)
	}
	chatMessage(marker + "]")
}

func getChatMessages() []string {
	format := gs.TimestampFormat
	if format == "" {
		format = "3:04PM"
	}
	return chatLog.Entries(format, gs.ChatTimestamps)
}

// chatGIFs lists the source URL of every GIF in the chat log, oldest first.
func chatGIFs() []string {
	if gifs == nil {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for _, msg := range chatLog.Entries("", false) {
		for _, t := range giftag.FindAll(msg) {
			url, ok := gifs.sourceURL(t)
			if ok && !seen[url] {
				seen[url] = true
				out = append(out, url)
			}
		}
	}
	return out
}
