// Package gifref maps long GIF URLs to short numeric tokens so they can
// travel through chat lines that would otherwise wrap or get truncated.
package gifref

import (
	"log"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Token is the compact stand-in for a URL. Valid tokens are never negative.
type Token int64

// Invalid is returned by Register for an empty URL.
const Invalid Token = -1

// Registry is safe for concurrent use. Registration and lookup of distinct
// tokens never contend on a shared lock.
type Registry struct {
	urls sync.Map // Token -> string
}

func New() *Registry {
	return &Registry{}
}

// TokenFor returns the token a URL hashes to without registering it.
func TokenFor(url string) Token {
	if url == "" {
		return Invalid
	}
	return Token(xxhash.Sum64String(url) & 0x7fffffff)
}

// Register records url and returns its token. Registering the same URL again
// yields the same token. Two URLs that hash to the same token alias each
// other; the later registration wins.
func (r *Registry) Register(url string) Token {
	t := TokenFor(url)
	if t == Invalid {
		return Invalid
	}
	prev, loaded := r.urls.Swap(t, url)
	if loaded && prev.(string) != url {
		log.Printf("gifref: token %d collision: %q replaced %q", t, url, prev)
	}
	return t
}

// Lookup returns the URL registered for t.
func (r *Registry) Lookup(t Token) (string, bool) {
	v, ok := r.urls.Load(t)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (t Token) String() string {
	return strconv.FormatInt(int64(t), 10)
}

// ParseToken parses the decimal form produced by Token.String.
func ParseToken(s string) (Token, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return Invalid, false
	}
	return Token(n), true
}
