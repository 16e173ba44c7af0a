package main

import (
	"errors"
	"strings"
	"testing"
)

func TestCacheSummary(t *testing.T) {
	origGS := gs
	defer func() { gs = origGS }()
	gs = gsdef
	gs.CacheBudgetMB = 1

	s, err := cacheSummary(&fakeGIFs{size: 2000})
	if err != nil {
		t.Fatalf("cacheSummary: %v", err)
	}
	if !strings.Contains(s, "2.0 kB of 1.0 MB") {
		t.Fatalf("summary = %q", s)
	}
	if _, err := cacheSummary(&fakeGIFs{sizeErr: errors.New("x")}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestClearCaches(t *testing.T) {
	consoleLog = messageLog{max: maxConsoleMessages}
	defer func() { consoleLog = messageLog{max: maxConsoleMessages} }()

	f := &fakeGIFs{size: 5000}
	if err := clearCaches(f); err != nil {
		t.Fatalf("clearCaches: %v", err)
	}
	if f.cleared != 1 {
		t.Fatalf("cleared = %d", f.cleared)
	}
	msgs := consoleLog.Entries("", false)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "5.0 kB freed") {
		t.Fatalf("console = %q", msgs)
	}

	f.clearErr = errors.New("busy")
	if err := clearCaches(f); err == nil {
		t.Fatalf("expected error")
	}
}
