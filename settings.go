package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gifchat/gifcache"
	"gifchat/gifdec"
	"gifchat/giftag"
	"gifchat/gifres"

	"github.com/hajimehoshi/ebiten/v2"
)

const SETTINGS_VERSION = 1

const settingsFile = "settings.json"

var gs settings = gsdef

// settingsLoaded reports whether settings were successfully loaded from disk.
var settingsLoaded bool

// settingsDirty is set when a runtime change should be written on exit.
var settingsDirty bool

// dataDirPath holds the directory for settings, chat logs and, unless
// overridden, the GIF cache. It is resolved relative to the executable so
// state stays next to the binary regardless of the working directory.
var dataDirPath = func() string {
	if runtime.GOOS == "darwin" {
		if home, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(home, "Library", "Application Support", "gifchat")
			_ = os.MkdirAll(home, 0o755)
			return home
		}
	}
	if exe, err := os.Executable(); err == nil {
		if dir, err := filepath.Abs(filepath.Dir(exe)); err == nil {
			return filepath.Join(dir, "data")
		}
	}
	// Fallback to relative path.
	return "data"
}()

var gsdef settings = settings{
	Version: SETTINGS_VERSION,

	CacheBudgetMB:     gifcache.DefaultBudget >> 20,
	MaxDownloads:      gifcache.DefaultMaxDownloads,
	FetchTimeout:      int(gifcache.DefaultTimeout / time.Second),
	UserAgent:         gifcache.DefaultUserAgent,
	MaxFrames:         gifdec.DefaultMaxFrames,
	DefaultFrameMS:    int(gifdec.DefaultDelay / time.Millisecond),
	MaxFrameDimension: gifdec.DefaultMaxDimension,
	UploadsPerFrame:   4,

	IndirectHosts: append([]string(nil), gifres.DefaultHosts...),
	ResolveRate:   2,
	TenorKey:      gifres.DefaultTenorKey,

	LineHeight:    giftag.DefaultLineHeight,
	DefaultWidth:  giftag.DefaultWidth,
	DefaultHeight: giftag.DefaultHeight,
	ChatMaxWidth:  giftag.ChatCaps.MaxWidth,
	ChatMaxHeight: giftag.ChatCaps.MaxHeight,

	ChatFontSize:      7,
	UIScale:           2,
	ConsoleLines:      3,
	ChatTimestamps:    false,
	ConsoleTimestamps: true,
	TimestampFormat:   "3:04PM",
	ClickToOpen:       true,
	ChatTranscripts:   true,
	WindowWidth:       initialWindowW,
	WindowHeight:      initialWindowH,
	vsync:             true,
}

type settings struct {
	Version int

	// CacheDir overrides the GIF cache location; empty means dataDir/gifcache.
	CacheDir          string
	CacheBudgetMB     int64
	MaxDownloads      int
	FetchTimeout      int // seconds
	UserAgent         string
	MaxFrames         int
	DefaultFrameMS    int
	MaxFrameDimension int
	UploadsPerFrame   int

	IndirectHosts []string
	ResolveRate   float64
	TenorKey      string

	LineHeight    int
	DefaultWidth  int
	DefaultHeight int
	ChatMaxWidth  int
	ChatMaxHeight int

	ChatFontSize      float64
	UIScale           float64
	ConsoleLines      int
	ChatTimestamps    bool
	ConsoleTimestamps bool
	TimestampFormat   string
	// Theme is "dark", "light" or empty to follow the system.
	Theme       string
	ClickToOpen bool
	// ChatTranscripts writes the chat to dated files under the data dir.
	ChatTranscripts bool
	WindowWidth     int
	WindowHeight    int
	Fullscreen      bool

	vsync bool
}

func loadSettings() bool {
	path := filepath.Join(dataDirPath, settingsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		gs = gsdef
		settingsLoaded = false
		return false
	}

	tmp := gsdef
	if err := json.Unmarshal(data, &tmp); err != nil {
		logWarn("settings: %v, using defaults", err)
		gs = gsdef
		settingsLoaded = false
		return false
	}
	if tmp.Version != SETTINGS_VERSION {
		gs = gsdef
		settingsLoaded = false
		return false
	}
	gs = tmp
	settingsLoaded = true
	clampSettings()
	return settingsLoaded
}

// clampSettings replaces out-of-range values with their defaults.
func clampSettings() {
	if gs.CacheBudgetMB <= 0 {
		gs.CacheBudgetMB = gsdef.CacheBudgetMB
	}
	if gs.MaxDownloads < 1 || gs.MaxDownloads > 32 {
		gs.MaxDownloads = gsdef.MaxDownloads
	}
	if gs.FetchTimeout <= 0 {
		gs.FetchTimeout = gsdef.FetchTimeout
	}
	if gs.UserAgent == "" {
		gs.UserAgent = gsdef.UserAgent
	}
	if gs.MaxFrames < 1 || gs.MaxFrames > 1000 {
		gs.MaxFrames = gsdef.MaxFrames
	}
	if gs.DefaultFrameMS < 20 || gs.DefaultFrameMS > 10000 {
		gs.DefaultFrameMS = gsdef.DefaultFrameMS
	}
	if gs.MaxFrameDimension < 16 || gs.MaxFrameDimension > 4096 {
		gs.MaxFrameDimension = gsdef.MaxFrameDimension
	}
	if gs.UploadsPerFrame < 0 {
		gs.UploadsPerFrame = gsdef.UploadsPerFrame
	}
	if gs.IndirectHosts == nil {
		gs.IndirectHosts = append([]string(nil), gsdef.IndirectHosts...)
	}
	if gs.ResolveRate < 0 {
		gs.ResolveRate = gsdef.ResolveRate
	}
	if gs.TenorKey == "" {
		gs.TenorKey = gsdef.TenorKey
	}
	if gs.LineHeight < 1 {
		gs.LineHeight = gsdef.LineHeight
	}
	if gs.DefaultWidth < 1 {
		gs.DefaultWidth = gsdef.DefaultWidth
	}
	if gs.DefaultHeight < 1 {
		gs.DefaultHeight = gsdef.DefaultHeight
	}
	if gs.ChatMaxWidth < 1 {
		gs.ChatMaxWidth = gsdef.ChatMaxWidth
	}
	if gs.ChatMaxHeight < 1 {
		gs.ChatMaxHeight = gsdef.ChatMaxHeight
	}
	if gs.ChatFontSize < 4 || gs.ChatFontSize > 72 {
		gs.ChatFontSize = gsdef.ChatFontSize
	}
	if gs.UIScale < 0.5 || gs.UIScale > 8 {
		gs.UIScale = gsdef.UIScale
	}
	if gs.ConsoleLines < 0 {
		gs.ConsoleLines = gsdef.ConsoleLines
	}
	if gs.WindowWidth < 320 {
		gs.WindowWidth = gsdef.WindowWidth
	}
	if gs.WindowHeight < 240 {
		gs.WindowHeight = gsdef.WindowHeight
	}
	switch gs.Theme {
	case "", "dark", "light":
	default:
		gs.Theme = ""
	}
}

func applySettings() {
	ebiten.SetVsyncEnabled(gs.vsync)
	ebiten.SetFullscreen(gs.Fullscreen)
	initFont()
}

func saveSettings() {
	data, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		logError("save settings: %v", err)
		return
	}
	if err := os.MkdirAll(dataDirPath, 0o755); err != nil {
		logError("save settings: %v", err)
		return
	}
	path := filepath.Join(dataDirPath, settingsFile)
	if err := os.WriteFile(path+".tmp", data, 0644); err != nil {
		logError("save settings: %v", err)
		return
	}
	if err := os.Rename(path+".tmp", path); err != nil {
		logError("save settings: %v", err)
	}
}

// gifCacheDir returns the directory the GIF cache lives in.
func gifCacheDir() string {
	if gs.CacheDir != "" {
		return gs.CacheDir
	}
	return filepath.Join(dataDirPath, "gifcache")
}
