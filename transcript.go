package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	transcriptPath string
	transcriptMu   sync.Mutex
)

// appendChatLog writes msg to the session transcript with token markers
// expanded back to their URLs, so the file stays meaningful after the
// session's registry is gone.
func appendChatLog(msg string) {
	if !gs.ChatTranscripts || msg == "" {
		return
	}
	if gifs != nil {
		msg = gifs.encoder.Expand(msg)
	}

	transcriptMu.Lock()
	defer transcriptMu.Unlock()
	if transcriptPath == "" {
		p, err := openTranscript(time.Now())
		if err != nil {
			logWarn("chat transcript: %v", err)
			gs.ChatTranscripts = false
			return
		}
		transcriptPath = p
	}

	line := strings.ReplaceAll(msg, "\r", "\n")
	line = strings.TrimRight(line, "\n")
	f, err := os.OpenFile(transcriptPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	_, _ = f.WriteString(transcriptStamp(time.Now()) + line + "\n")
	_ = f.Close()
}

// openTranscript creates "Chat Logs/YYYY/MM/DD HH.MM.SS.txt" under the data
// directory and writes the session header.
func openTranscript(now time.Time) (string, error) {
	dir := filepath.Join(dataDirPath, "Chat Logs",
		fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%02d %02d.%02d.%02d.txt", now.Day(), now.Hour(), now.Minute(), now.Second())
	p := filepath.Join(dir, name)
	header := fmt.Sprintf("=== Session started %s ===\n", now.Format(time.RFC3339))
	if err := os.WriteFile(p, []byte(header), 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// transcriptStamp formats t like "3/7/25 9:05:01p ".
func transcriptStamp(t time.Time) string {
	hour := t.Hour()
	ampm := byte('a')
	if hour >= 12 {
		ampm = 'p'
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d/%d/%.2d %d:%.2d:%.2d%c ",
		int(t.Month()), t.Day(), t.Year()%100,
		hour12, t.Minute(), t.Second(), ampm)
}
