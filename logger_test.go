package main

import (
	"log"
	"os"
	"strings"
	"testing"
)

func TestLogFilesCreatedOnFirstUse(t *testing.T) {
	origDir := logDir
	logDir = t.TempDir()
	t.Cleanup(func() {
		errorLogger = nil
		setDebugLogging(false)
		log.SetOutput(os.Stderr)
		logDir = origDir
	})

	setupLogging(true)
	if !debugEnabled() {
		t.Fatalf("debug logging not enabled")
	}
	if entries, _ := os.ReadDir(logDir); len(entries) != 0 {
		t.Fatalf("log files created before use: %v", entries)
	}

	logDebug("fetching %v", "a.gif")
	data, err := os.ReadFile(debugLogPath)
	if err != nil || !strings.Contains(string(data), "fetching a.gif") {
		t.Fatalf("debug log = %q, %v", data, err)
	}
	if _, err := os.Stat(errorLogPath); !os.IsNotExist(err) {
		t.Fatalf("error log created by a debug message: %v", err)
	}

	logWarn("cache %v", "full")
	data, err = os.ReadFile(errorLogPath)
	if err != nil || !strings.Contains(string(data), "warning: cache full") {
		t.Fatalf("error log = %q, %v", data, err)
	}
}
