package main

import (
	"os"
	"path/filepath"
	"testing"
)

func withDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, origGS := dataDirPath, gs
	dataDirPath = dir
	t.Cleanup(func() {
		dataDirPath = orig
		gs = origGS
	})
	return dir
}

func TestLoadSettingsMissingFile(t *testing.T) {
	withDataDir(t)
	gs.MaxDownloads = 99
	if loadSettings() {
		t.Fatalf("loadSettings reported success without a file")
	}
	if gs.MaxDownloads != gsdef.MaxDownloads {
		t.Fatalf("MaxDownloads = %d, want default %d", gs.MaxDownloads, gsdef.MaxDownloads)
	}
}

func TestSaveLoadSettings(t *testing.T) {
	dir := withDataDir(t)
	gs = gsdef
	gs.CacheBudgetMB = 64
	gs.Theme = "light"
	gs.IndirectHosts = []string{"example.com"}
	saveSettings()
	if _, err := os.Stat(filepath.Join(dir, settingsFile+".tmp")); !os.IsNotExist(err) {
		t.Fatalf("temporary settings file left behind: %v", err)
	}

	gs = gsdef
	if !loadSettings() {
		t.Fatalf("loadSettings failed")
	}
	if gs.CacheBudgetMB != 64 || gs.Theme != "light" {
		t.Fatalf("loaded %+v", gs)
	}
	if len(gs.IndirectHosts) != 1 || gs.IndirectHosts[0] != "example.com" {
		t.Fatalf("IndirectHosts = %v", gs.IndirectHosts)
	}
}

func TestLoadSettingsClampsValues(t *testing.T) {
	dir := withDataDir(t)
	data := []byte(`{"Version": 1, "MaxDownloads": 0, "LineHeight": -3, "UIScale": 100,
		"DefaultFrameMS": 5, "Theme": "purple", "ChatFontSize": 12}`)
	if err := os.WriteFile(filepath.Join(dir, settingsFile), data, 0644); err != nil {
		t.Fatal(err)
	}
	if !loadSettings() {
		t.Fatalf("loadSettings failed")
	}
	if gs.MaxDownloads != gsdef.MaxDownloads {
		t.Errorf("MaxDownloads = %d", gs.MaxDownloads)
	}
	if gs.LineHeight != gsdef.LineHeight {
		t.Errorf("LineHeight = %d", gs.LineHeight)
	}
	if gs.UIScale != gsdef.UIScale {
		t.Errorf("UIScale = %v", gs.UIScale)
	}
	if gs.DefaultFrameMS != gsdef.DefaultFrameMS {
		t.Errorf("DefaultFrameMS = %d", gs.DefaultFrameMS)
	}
	if gs.Theme != "" {
		t.Errorf("Theme = %q", gs.Theme)
	}
	if gs.ChatFontSize != 12 {
		t.Errorf("ChatFontSize = %v, want 12 kept", gs.ChatFontSize)
	}
	// Fields missing from the file keep their defaults.
	if gs.TenorKey != gsdef.TenorKey || gs.MaxFrames != gsdef.MaxFrames {
		t.Errorf("defaults not merged: %+v", gs)
	}
}

func TestLoadSettingsVersionMismatch(t *testing.T) {
	dir := withDataDir(t)
	data := []byte(`{"Version": 0, "CacheBudgetMB": 1}`)
	if err := os.WriteFile(filepath.Join(dir, settingsFile), data, 0644); err != nil {
		t.Fatal(err)
	}
	if loadSettings() {
		t.Fatalf("old settings version accepted")
	}
	if gs.CacheBudgetMB != gsdef.CacheBudgetMB {
		t.Fatalf("CacheBudgetMB = %d", gs.CacheBudgetMB)
	}
}

func TestLoadSettingsCorrupt(t *testing.T) {
	dir := withDataDir(t)
	if err := os.WriteFile(filepath.Join(dir, settingsFile), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if loadSettings() {
		t.Fatalf("corrupt settings accepted")
	}
}

func TestGIFCacheDir(t *testing.T) {
	dir := withDataDir(t)
	gs = gsdef
	if got := gifCacheDir(); got != filepath.Join(dir, "gifcache") {
		t.Fatalf("gifCacheDir = %q", got)
	}
	gs.CacheDir = "/tmp/elsewhere"
	if got := gifCacheDir(); got != "/tmp/elsewhere" {
		t.Fatalf("gifCacheDir override = %q", got)
	}
}
