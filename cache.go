package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// gifCache is the disk cache surface exposed to the command line and UI.
type gifCache interface {
	CacheSize() (int64, error)
	ClearCache() error
}

// cacheSummary describes disk usage against the configured budget.
func cacheSummary(c gifCache) (string, error) {
	size, err := c.CacheSize()
	if err != nil {
		return "", err
	}
	budget := uint64(gs.CacheBudgetMB) << 20
	return fmt.Sprintf("GIF cache: %s of %s (%s)",
		humanize.Bytes(uint64(size)), humanize.Bytes(budget), gifCacheDir()), nil
}

// clearCaches empties the GIF disk cache. Animations already on screen keep
// playing from memory.
func clearCaches(c gifCache) error {
	before, err := c.CacheSize()
	if err != nil {
		logWarn("measure gif cache: %v", err)
	}
	if err := c.ClearCache(); err != nil {
		return err
	}
	consoleMessage(fmt.Sprintf("GIF cache cleared (%s freed).", humanize.Bytes(uint64(before))))
	return nil
}
