// Package gifcache fetches, caches and decodes GIFs referenced from chat,
// and serves the frame that should be on screen right now.
//
// All network, disk and decode work runs on background goroutines. The only
// step tied to the render goroutine is Drain, which turns decoded pixel
// buffers into renderer handles.
package gifcache

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/remeh/sizedwaitgroup"
	"resty.dev/v3"

	"gifchat/gifdec"
)

const (
	DefaultBudget       = 500 << 20
	DefaultMaxDownloads = 3
	DefaultTimeout      = 30 * time.Second
	DefaultUserAgent    = "Mozilla/5.0 gifchat"
	// DefaultMinBytes rejects bodies too small to be a GIF.
	DefaultMinBytes = 10
)

// ErrShortBody is returned when a download is empty or implausibly small.
var ErrShortBody = errors.New("empty or truncated response")

// Resolver maps a possibly indirect URL to the media URL to download.
type Resolver interface {
	Resolve(ctx context.Context, url string) (string, error)
}

type Options[T any] struct {
	// Dir holds the disk cache.
	Dir string
	// Budget is the disk cache size limit in bytes.
	Budget int64
	// MaxDownloads bounds concurrent downloads.
	MaxDownloads int
	UserAgent    string
	// Timeout bounds resolving and downloading one GIF.
	Timeout  time.Duration
	MinBytes int
	// Resolver is optional; without it URLs are fetched as given.
	Resolver Resolver
	Decode   gifdec.Options
	// Upload turns a finished frame into a renderer handle. It is only
	// called from Drain.
	Upload func(*image.RGBA) T
	// Client overrides the HTTP client.
	Client *resty.Client
	Debugf func(format string, args ...any)
}

// Metadata describes an animation without touching its frames.
type Metadata struct {
	Width    int
	Height   int
	Loading  bool
	Failed   bool
	Frames   int
	Duration time.Duration
}

// Stats counts acquisition outcomes since startup.
type Stats struct {
	Entries   int
	Loading   int
	DiskHits  int64
	Downloads int64
	Failures  int64
	Pending   int
}

// animation is published once and never mutated afterwards.
type animation[T any] struct {
	frames []T
	delays []int
	total  int
	width  int
	height int
	failed bool
}

// entry is nil-state while loading.
type entry[T any] struct {
	state atomic.Pointer[animation[T]]
}

type upload[T any] struct {
	url   string
	entry *entry[T]
	res   *gifdec.Result
}

// Manager is safe for concurrent use. One entry exists per source URL for
// the lifetime of the Manager, including entries that failed to load.
type Manager[T any] struct {
	opts      Options[T]
	disk      *DiskCache
	client    *resty.Client
	downloads sizedwaitgroup.SizedWaitGroup
	entries   sync.Map // string -> *entry[T]

	uploadMu sync.Mutex
	uploads  []upload[T]

	diskHits   atomic.Int64
	downloaded atomic.Int64
	failures   atomic.Int64
}

func New[T any](opts Options[T]) (*Manager[T], error) {
	if opts.Upload == nil {
		return nil, errors.New("gifcache: Upload is required")
	}
	if opts.Dir == "" {
		return nil, errors.New("gifcache: Dir is required")
	}
	if opts.Budget <= 0 {
		opts.Budget = DefaultBudget
	}
	if opts.MaxDownloads <= 0 {
		opts.MaxDownloads = DefaultMaxDownloads
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MinBytes <= 0 {
		opts.MinBytes = DefaultMinBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Decode.MaxFrames <= 0 {
		opts.Decode = gifdec.DefaultOptions()
	}

	disk, err := NewDiskCache(opts.Dir, opts.Budget)
	if err != nil {
		return nil, fmt.Errorf("gifcache: %w", err)
	}
	client := opts.Client
	if client == nil {
		client = resty.New()
	}
	client.SetHeader("User-Agent", opts.UserAgent)

	return &Manager[T]{
		opts:      opts,
		disk:      disk,
		client:    client,
		downloads: sizedwaitgroup.New(opts.MaxDownloads),
	}, nil
}

// Close waits for in-flight downloads and releases the HTTP client.
func (m *Manager[T]) Close() error {
	m.downloads.Wait()
	return m.client.Close()
}

func (m *Manager[T]) debugf(format string, args ...any) {
	if m.opts.Debugf != nil {
		m.opts.Debugf(format, args...)
	}
}

// get returns the entry for url, creating it and starting acquisition on
// first use.
func (m *Manager[T]) get(url string) *entry[T] {
	if v, ok := m.entries.Load(url); ok {
		return v.(*entry[T])
	}
	v, loaded := m.entries.LoadOrStore(url, &entry[T]{})
	e := v.(*entry[T])
	if !loaded {
		m.debugf("first request for gif %v", url)
		go m.acquire(url, e)
	}
	return e
}

// Frame returns the frame of url to draw at now. It never blocks; while the
// GIF is loading, or after it failed, it returns false.
func (m *Manager[T]) Frame(url string, now time.Time) (T, bool) {
	var zero T
	if url == "" {
		return zero, false
	}
	a := m.get(url).state.Load()
	if a == nil || a.failed {
		return zero, false
	}
	return CurrentFrame(a.frames, a.delays, a.total, now.UnixMilli())
}

// Prefetch starts acquisition of url without asking for a frame.
func (m *Manager[T]) Prefetch(url string) {
	if url != "" {
		m.get(url)
	}
}

// Metadata reports on url. It does not start acquisition.
func (m *Manager[T]) Metadata(url string) (Metadata, bool) {
	v, ok := m.entries.Load(url)
	if !ok {
		return Metadata{}, false
	}
	a := v.(*entry[T]).state.Load()
	if a == nil {
		return Metadata{Loading: true}, true
	}
	return Metadata{
		Width:    a.width,
		Height:   a.height,
		Failed:   a.failed,
		Frames:   len(a.frames),
		Duration: time.Duration(a.total) * time.Millisecond,
	}, true
}

// Drain uploads up to max decoded animations (all when max <= 0) and makes
// them visible to Frame. It must be called from the goroutine that owns the
// renderer. It returns the number of animations published.
func (m *Manager[T]) Drain(max int) int {
	m.uploadMu.Lock()
	batch := m.uploads
	if max > 0 && len(batch) > max {
		batch = batch[:max:max]
		m.uploads = m.uploads[max:]
	} else {
		m.uploads = nil
	}
	m.uploadMu.Unlock()

	for _, u := range batch {
		frames := make([]T, len(u.res.Frames))
		for i, img := range u.res.Frames {
			frames[i] = m.opts.Upload(img)
			u.res.Frames[i] = nil
		}
		u.entry.state.Store(&animation[T]{
			frames: frames,
			delays: u.res.Delays,
			total:  u.res.Total(),
			width:  u.res.Width,
			height: u.res.Height,
		})
		m.debugf("registered %d frames for %v", len(frames), u.url)
	}
	return len(batch)
}

// Pending returns the number of decoded animations waiting for Drain.
func (m *Manager[T]) Pending() int {
	m.uploadMu.Lock()
	defer m.uploadMu.Unlock()
	return len(m.uploads)
}

// CacheSize returns the bytes used by the disk cache.
func (m *Manager[T]) CacheSize() (int64, error) {
	return m.disk.Size()
}

// ClearCache deletes all cached GIFs from disk. Loaded animations stay in
// memory.
func (m *Manager[T]) ClearCache() error {
	if err := m.disk.Clear(); err != nil {
		return fmt.Errorf("clear gif cache: %w", err)
	}
	log.Printf("gifcache: cache cleared")
	return nil
}

func (m *Manager[T]) Stats() Stats {
	s := Stats{
		DiskHits:  m.diskHits.Load(),
		Downloads: m.downloaded.Load(),
		Failures:  m.failures.Load(),
		Pending:   m.Pending(),
	}
	m.entries.Range(func(_, v any) bool {
		s.Entries++
		if v.(*entry[T]).state.Load() == nil {
			s.Loading++
		}
		return true
	})
	return s
}

func (m *Manager[T]) acquire(url string, e *entry[T]) {
	start := time.Now()
	data, err := m.load(url)
	if err == nil {
		err = m.decode(url, e, data)
		if err != nil {
			// Drop the bad blob so a later session downloads it again.
			m.disk.Remove(url)
		}
	}
	if err != nil {
		log.Printf("gifcache: failed to load gif %v: %v", url, err)
		m.failures.Add(1)
		e.state.Store(&animation[T]{failed: true})
		return
	}
	m.debugf("decoded %v in %v", url, durafmt.Parse(time.Since(start)).LimitFirstN(2))
}

// load returns the bytes for url from disk or the network.
func (m *Manager[T]) load(url string) ([]byte, error) {
	data, ok, err := m.disk.Load(url)
	if err != nil {
		log.Printf("gifcache: read cache for %v: %v", url, err)
	}
	if ok {
		m.diskHits.Add(1)
		m.debugf("loaded gif from disk cache: %v (%v)", url, humanize.Bytes(uint64(len(data))))
		return data, nil
	}

	m.downloads.Add()
	defer m.downloads.Done()

	cleared, size, err := m.disk.Enforce()
	if err != nil {
		log.Printf("gifcache: check cache size: %v", err)
	}
	if cleared {
		log.Printf("gifcache: cache size %v exceeded %v, cleared",
			humanize.Bytes(uint64(size)), humanize.Bytes(uint64(m.opts.Budget)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.Timeout)
	defer cancel()

	direct := url
	if m.opts.Resolver != nil {
		direct, err = m.opts.Resolver.Resolve(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("resolve: %w", err)
		}
	}
	m.debugf("downloading %v", direct)
	data, err = m.fetch(ctx, direct)
	if err != nil {
		return nil, err
	}
	m.downloaded.Add(1)
	if err := m.disk.Store(url, data); err != nil {
		log.Printf("gifcache: save %v: %v", url, err)
	}
	m.debugf("downloaded %v for %v", humanize.Bytes(uint64(len(data))), url)
	return data, nil
}

func (m *Manager[T]) fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := m.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %v: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("GET %v: %v", url, resp.Status())
	}
	data := resp.Bytes()
	if len(data) < m.opts.MinBytes {
		return nil, fmt.Errorf("GET %v: %w (%d bytes)", url, ErrShortBody, len(data))
	}
	return data, nil
}

// decode composites the frames off the render goroutine and queues them
// for Drain.
func (m *Manager[T]) decode(url string, e *entry[T], data []byte) error {
	res, err := gifdec.Decode(data, m.opts.Decode)
	if err != nil {
		return err
	}
	if res.SourceFrames > len(res.Frames) {
		m.debugf("downsampled %v from %d to %d frames", url, res.SourceFrames, len(res.Frames))
	}
	m.uploadMu.Lock()
	m.uploads = append(m.uploads, upload[T]{url: url, entry: e, res: res})
	m.uploadMu.Unlock()
	return nil
}
