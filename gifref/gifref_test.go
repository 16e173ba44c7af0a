package gifref

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegisterIdempotent(t *testing.T) {
	r := New()
	urls := []string{
		"https://example.com/a.gif",
		"https://tenor.com/view/cat-dance-123",
		"https://media.giphy.com/media/xyz/giphy.gif?cid=1&rid=2",
	}
	for _, u := range urls {
		a := r.Register(u)
		b := r.Register(u)
		if a != b {
			t.Fatalf("register %q: got %d then %d", u, a, b)
		}
		if a < 0 {
			t.Fatalf("register %q: negative token %d", u, a)
		}
		got, ok := r.Lookup(a)
		if !ok || got != u {
			t.Fatalf("lookup %d = %q, %v; want %q", a, got, ok, u)
		}
	}
}

func TestRegisterEmpty(t *testing.T) {
	r := New()
	if tok := r.Register(""); tok != Invalid {
		t.Fatalf("empty url token = %d, want %d", tok, Invalid)
	}
	if _, ok := r.Lookup(Invalid); ok {
		t.Fatalf("invalid token should not resolve")
	}
}

func TestLookupUnknown(t *testing.T) {
	r := New()
	if _, ok := r.Lookup(42); ok {
		t.Fatalf("unknown token resolved")
	}
}

func TestTokenForMatchesRegister(t *testing.T) {
	r := New()
	u := "https://example.com/b.gif"
	if TokenFor(u) != r.Register(u) {
		t.Fatalf("TokenFor disagrees with Register")
	}
}

func TestParseToken(t *testing.T) {
	tok := TokenFor("https://example.com/c.gif")
	got, ok := ParseToken(tok.String())
	if !ok || got != tok {
		t.Fatalf("ParseToken(%q) = %d, %v", tok.String(), got, ok)
	}
	for _, s := range []string{"", "-5", "abc", "12x"} {
		if _, ok := ParseToken(s); ok {
			t.Errorf("ParseToken(%q) accepted", s)
		}
	}
}

func TestConcurrentRegisterLookup(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				u := fmt.Sprintf("https://example.com/%d/%d.gif", i, j)
				tok := r.Register(u)
				if got, ok := r.Lookup(tok); !ok || got == "" {
					t.Errorf("lookup after register failed for %q", u)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
