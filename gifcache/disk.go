package gifcache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DiskCache stores raw GIF bytes in a directory, one file per source URL.
// There is no index: a file's presence is the only record of an entry.
//
// The size budget is enforced coarsely. Once the directory grows past it
// the whole cache is cleared rather than trimmed.
type DiskCache struct {
	dir    string
	budget int64
}

// NewDiskCache creates dir if needed.
func NewDiskCache(dir string, budget int64) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir, budget: budget}, nil
}

func (d *DiskCache) Dir() string { return d.dir }

func (d *DiskCache) Budget() int64 { return d.budget }

func (d *DiskCache) path(url string) string {
	return filepath.Join(d.dir, Key(url))
}

// Key returns the file name used for url.
func Key(url string) string {
	return fmt.Sprintf("%016x.gif", xxhash.Sum64String(url))
}

// Load returns the cached bytes for url and refreshes its access time.
// A missing entry is not an error.
func (d *DiskCache) Load(url string) ([]byte, bool, error) {
	p := d.path(url)
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := d.Touch(url); err != nil {
		return data, true, err
	}
	return data, true, nil
}

// Touch marks url as recently used. A missing entry is not an error.
func (d *DiskCache) Touch(url string) error {
	now := time.Now()
	err := os.Chtimes(d.path(url), now, now)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Store writes data for url. The file appears atomically.
func (d *DiskCache) Store(url string, data []byte) error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(d.dir, Key(url)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, d.path(url)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Remove deletes the entry for url if present.
func (d *DiskCache) Remove(url string) error {
	err := os.Remove(d.path(url))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Size returns the total size of all files in the cache.
func (d *DiskCache) Size() (int64, error) {
	var total int64
	err := filepath.WalkDir(d.dir, func(_ string, de fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !de.Type().IsRegular() {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			// Removed by a concurrent clear.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// Clear deletes every entry and recreates the empty directory.
func (d *DiskCache) Clear() error {
	if err := os.RemoveAll(d.dir); err != nil {
		return err
	}
	return os.MkdirAll(d.dir, 0755)
}

// Enforce clears the cache when it exceeds the budget. It reports whether
// it cleared and the size it measured.
func (d *DiskCache) Enforce() (bool, int64, error) {
	size, err := d.Size()
	if err != nil {
		return false, size, err
	}
	if d.budget <= 0 || size <= d.budget {
		return false, size, nil
	}
	return true, size, d.Clear()
}
