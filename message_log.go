package main

import (
	"sync"
	"time"
)

type timedMessage struct {
	Text string
	Time time.Time
}

type messageLog struct {
	mu      sync.Mutex
	entries []timedMessage
	max     int
	// gen counts additions so the chat layout is rebuilt only when it changes.
	gen uint64
}

func (l *messageLog) Add(msg string) {
	if msg == "" {
		return
	}
	entry := timedMessage{Text: msg, Time: time.Now()}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if l.max > 0 && len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	l.gen++
	l.mu.Unlock()
}

// Generation returns a counter that changes whenever a message is added.
func (l *messageLog) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

func (l *messageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *messageLog) Entries(format string, useTimestamps bool) []string {
	l.mu.Lock()
	entries := make([]timedMessage, len(l.entries))
	copy(entries, l.entries)
	l.mu.Unlock()

	out := make([]string, len(entries))
	if format == "" {
		format = "3:04PM"
	}
	if useTimestamps {
		for i, msg := range entries {
			out[i] = "[" + msg.Time.Format(format) + "] " + msg.Text
		}
		return out
	}
	for i, msg := range entries {
		out[i] = msg.Text
	}
	return out
}
