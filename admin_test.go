package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gifchat/gifcache"
)

type fakeGIFs struct {
	size     int64
	sizeErr  error
	clearErr error
	cleared  int
	meta     map[string]gifcache.Metadata
}

func (f *fakeGIFs) CacheSize() (int64, error) { return f.size, f.sizeErr }

func (f *fakeGIFs) ClearCache() error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared++
	f.size = 0
	return nil
}

func (f *fakeGIFs) Stats() gifcache.Stats {
	return gifcache.Stats{Entries: len(f.meta), Downloads: 2}
}

func (f *fakeGIFs) Metadata(url string) (gifcache.Metadata, bool) {
	md, ok := f.meta[url]
	return md, ok
}

type fakeChat struct {
	posted []string
	gifs   []string
}

func (f *fakeChat) Post(text string) { f.posted = append(f.posted, text) }

func (f *fakeChat) PostGIF(url string, w, h int) {
	f.gifs = append(f.gifs, fmt.Sprintf("%s %dx%d", url, w, h))
}

func (f *fakeChat) Len() int { return len(f.posted) }

func (f *fakeChat) GIFs() []string { return nil }

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAdminCacheSize(t *testing.T) {
	r := newAdminRouter(&fakeGIFs{size: 3 << 20}, &fakeChat{})
	w := serve(t, r, http.MethodGet, "/api/cache", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp cacheResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Bytes != 3<<20 || resp.Human != "3.1 MB" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestAdminCacheSizeError(t *testing.T) {
	r := newAdminRouter(&fakeGIFs{sizeErr: errors.New("disk gone")}, &fakeChat{})
	w := serve(t, r, http.MethodGet, "/api/cache", "")
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "disk gone") {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestAdminClearCache(t *testing.T) {
	f := &fakeGIFs{size: 100}
	r := newAdminRouter(f, &fakeChat{})
	w := serve(t, r, http.MethodDelete, "/api/cache", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if f.cleared != 1 {
		t.Fatalf("cleared = %d", f.cleared)
	}

	f.clearErr = errors.New("busy")
	w = serve(t, r, http.MethodDelete, "/api/cache", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAdminGIF(t *testing.T) {
	f := &fakeGIFs{meta: map[string]gifcache.Metadata{
		"https://a.example/x.gif": {Width: 10, Height: 5, Frames: 3, Duration: 1500 * time.Millisecond},
		"https://a.example/y.gif": {Loading: true},
	}}
	r := newAdminRouter(f, &fakeChat{})

	w := serve(t, r, http.MethodGet, "/api/gif?url=https://a.example/x.gif", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp gifResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Width != 10 || resp.Height != 5 || resp.Frames != 3 || resp.Loading || resp.Duration == "" {
		t.Fatalf("response = %+v", resp)
	}

	w = serve(t, r, http.MethodGet, "/api/gif?url=https://a.example/y.gif", "")
	if !strings.Contains(w.Body.String(), `"loading":true`) {
		t.Fatalf("body = %s", w.Body.String())
	}
	if w := serve(t, r, http.MethodGet, "/api/gif?url=https://a.example/z.gif", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown gif status = %d", w.Code)
	}
	if w := serve(t, r, http.MethodGet, "/api/gif", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing url status = %d", w.Code)
	}
}

func TestAdminStats(t *testing.T) {
	r := newAdminRouter(&fakeGIFs{}, &fakeChat{})
	w := serve(t, r, http.MethodGet, "/api/stats", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"Downloads":2`) {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestAdminPostChat(t *testing.T) {
	chat := &fakeChat{}
	r := newAdminRouter(&fakeGIFs{}, chat)
	w := serve(t, r, http.MethodPost, "/api/chat", `{"text":"hi [GIF:https://a.example/x.gif]"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if len(chat.posted) != 1 || chat.posted[0] != "hi [GIF:https://a.example/x.gif]" {
		t.Fatalf("posted = %q", chat.posted)
	}
	if w := serve(t, r, http.MethodPost, "/api/chat", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty body status = %d", w.Code)
	}
}

func TestAdminPostGIF(t *testing.T) {
	chat := &fakeChat{}
	r := newAdminRouter(&fakeGIFs{}, chat)
	w := serve(t, r, http.MethodPost, "/api/gif", `{"url":"https://a.example/x.gif","height":20}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if len(chat.gifs) != 1 || chat.gifs[0] != "https://a.example/x.gif 0x20" {
		t.Fatalf("posted gifs = %q", chat.gifs)
	}
	for _, body := range []string{`{}`, `{"url":"https://a.example/x.gif","width":-1}`} {
		if w := serve(t, r, http.MethodPost, "/api/gif", body); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", body, w.Code)
		}
	}
}

func TestAdminChatSummary(t *testing.T) {
	r := newAdminRouter(&fakeGIFs{}, &fakeChat{})
	w := serve(t, r, http.MethodGet, "/api/chat", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"messages":0,"gifs":[]}` {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

// The live backend feeds the real chat log through the producer path.
func TestAdminLiveChat(t *testing.T) {
	withChat(t)
	r := newAdminRouter(&fakeGIFs{}, liveChat{})
	serve(t, r, http.MethodPost, "/api/chat", `{"text":"hello"}`)
	serve(t, r, http.MethodPost, "/api/gif", `{"url":"https://a.example/x.gif","width":80}`)

	msgs := getChatMessages()
	if len(msgs) != 2 || !strings.Contains(msgs[1], ":W80:H40]") {
		t.Fatalf("messages = %q", msgs)
	}
	w := serve(t, r, http.MethodGet, "/api/chat", "")
	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Messages != 2 || len(resp.GIFs) != 1 || resp.GIFs[0] != "https://a.example/x.gif" {
		t.Fatalf("chat = %+v", resp)
	}
}
