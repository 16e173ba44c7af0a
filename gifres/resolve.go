// Package gifres turns links to GIF hosting pages into direct media URLs.
package gifres

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
	"resty.dev/v3"
)

const (
	DefaultUserAgent = "Mozilla/5.0 gifchat"
	DefaultTimeout   = 30 * time.Second
	// maxPages bounds the remembered page results; the memo is dropped
	// wholesale when full.
	maxPages = 1024
)

// DefaultHosts serve HTML pages rather than the GIF itself.
var DefaultHosts = []string{"tenor.com", "giphy.com"}

var contentURLPattern = regexp.MustCompile(`"contentUrl":\s*"([^"]+\.gif)"`)

var unescaper = strings.NewReplacer(
	`\u002F`, "/",
	`\u002f`, "/",
	`\u0026`, "&",
	`\u003D`, "=",
	`\u003d`, "=",
	`\u003F`, "?",
	`\u003f`, "?",
	`\/`, "/",
)

// Unescape undoes the JSON escaping hosting pages apply to URLs.
func Unescape(s string) string {
	return unescaper.Replace(s)
}

type Options struct {
	// Hosts lists domains whose links are pages to scrape. Subdomains match.
	Hosts     []string
	UserAgent string
	Timeout   time.Duration
	// PagesPerSecond limits page fetches; zero disables the limit.
	PagesPerSecond float64
	// Client overrides the HTTP client, mostly for tests.
	Client *resty.Client
}

// Resolver is safe for concurrent use. Each hosting page is fetched at most
// once: concurrent lookups share one request and later lookups reuse the
// result.
type Resolver struct {
	hosts   []string
	client  *resty.Client
	limiter *rate.Limiter
	timeout time.Duration
	group   singleflight.Group

	mu    sync.Mutex
	pages map[string]string // page key -> media URL, "" for no match
}

func New(opts Options) *Resolver {
	r := &Resolver{hosts: opts.Hosts, timeout: opts.Timeout, pages: map[string]string{}}
	if r.hosts == nil {
		r.hosts = DefaultHosts
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	r.client = opts.Client
	if r.client == nil {
		ua := opts.UserAgent
		if ua == "" {
			ua = DefaultUserAgent
		}
		r.client = resty.New().SetHeader("User-Agent", ua)
		if opts.Timeout > 0 {
			r.client.SetTimeout(opts.Timeout)
		}
	}
	if opts.PagesPerSecond > 0 {
		burst := int(opts.PagesPerSecond)
		r.limiter = rate.NewLimiter(rate.Limit(opts.PagesPerSecond), max(burst, 1))
	}
	return r
}

// Close releases the HTTP client.
func (r *Resolver) Close() error {
	return r.client.Close()
}

// Indirect reports whether raw points at a hosting page.
func (r *Resolver) Indirect(raw string) bool {
	_, ok := r.page(raw)
	return ok
}

// page parses raw and reports whether it is a hosting page.
func (r *Resolver) page(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	if mediaPath(u.Path) {
		return nil, false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range r.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return u, true
		}
	}
	return nil, false
}

// PageKey names the page behind u without its query and fragment, so the
// same page shared with different tracking parameters is fetched once.
func PageKey(u *url.URL) string {
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + u.EscapedPath()
}

func mediaPath(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".gif", ".webp", ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// Resolve returns the direct media URL for raw. URLs that are not on a
// hosting domain, and hosting pages without a recognizable GIF link, are
// returned unescaped but otherwise unchanged.
//
// The page fetch is shared between callers and is not tied to any one of
// them: a caller whose ctx ends gets ctx.Err() while the others keep
// waiting.
func (r *Resolver) Resolve(ctx context.Context, raw string) (string, error) {
	u, ok := r.page(raw)
	if !ok {
		return Unescape(raw), nil
	}
	key := PageKey(u)
	media, ok := r.lookup(key)
	if !ok {
		ch := r.group.DoChan(key, func() (any, error) {
			if media, ok := r.lookup(key); ok {
				return media, nil
			}
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
			defer cancel()
			media, err := r.scrape(fctx, key)
			if err != nil {
				return "", err
			}
			r.remember(key, media)
			return media, nil
		})
		select {
		case res := <-ch:
			if res.Err != nil {
				return "", res.Err
			}
			media = res.Val.(string)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if media == "" {
		return Unescape(raw), nil
	}
	return media, nil
}

func (r *Resolver) lookup(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	media, ok := r.pages[key]
	return media, ok
}

func (r *Resolver) remember(key, media string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pages) >= maxPages {
		clear(r.pages)
	}
	r.pages[key] = media
}

// scrape fetches page and returns the GIF it links to, or "" if it links to
// none.
func (r *Resolver) scrape(ctx context.Context, page string) (string, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	resp, err := r.client.R().SetContext(ctx).Get(page)
	if err != nil {
		return "", fmt.Errorf("fetch %v: %w", page, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetch %v: %v", page, resp.Status())
	}
	body := resp.Bytes()

	if og := metaImage(body); og != "" {
		og = Unescape(og)
		if strings.Contains(og, ".gif") || strings.Contains(og, "media.tenor.com") {
			return og, nil
		}
	}
	if m := contentURLPattern.FindSubmatch(body); m != nil {
		return Unescape(string(m[1])), nil
	}
	return "", nil
}

// metaImage returns the content of the first og:image meta tag.
func metaImage(page []byte) string {
	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "meta" || !hasAttr {
				continue
			}
			var prop, content string
			for {
				key, val, more := z.TagAttr()
				switch string(key) {
				case "property", "name":
					prop = string(val)
				case "content":
					content = string(val)
				}
				if !more {
					break
				}
			}
			if prop == "og:image" && content != "" {
				return content
			}
		}
	}
}
