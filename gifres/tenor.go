package gifres

import (
	"context"
	"fmt"
	"strconv"

	"resty.dev/v3"
)

const (
	DefaultTenorBase = "https://g.tenor.com/v1"
	// DefaultTenorKey is Tenor's public integration key.
	DefaultTenorKey = "LIVDSRZULELA"
)

// Entry is one pickable GIF.
type Entry struct {
	URL        string
	PreviewURL string
}

// Tenor queries the Tenor v1 API for the GIF picker.
type Tenor struct {
	Base   string
	Key    string
	Limit  int
	client *resty.Client
}

func NewTenor(client *resty.Client) *Tenor {
	if client == nil {
		client = resty.New().SetHeader("User-Agent", DefaultUserAgent)
	}
	return &Tenor{Base: DefaultTenorBase, Key: DefaultTenorKey, Limit: 20, client: client}
}

type tenorMedia struct {
	URL     string `json:"url"`
	Preview string `json:"preview"`
}

type tenorResponse struct {
	Results []struct {
		Media []map[string]tenorMedia `json:"media"`
	} `json:"results"`
}

// Trending returns the currently trending GIFs.
func (t *Tenor) Trending(ctx context.Context) ([]Entry, error) {
	return t.fetch(ctx, "/trending", nil)
}

// Search returns GIFs matching q.
func (t *Tenor) Search(ctx context.Context, q string) ([]Entry, error) {
	return t.fetch(ctx, "/search", map[string]string{"q": q})
}

func (t *Tenor) fetch(ctx context.Context, path string, extra map[string]string) ([]Entry, error) {
	params := map[string]string{
		"key":   t.Key,
		"limit": strconv.Itoa(t.Limit),
	}
	for k, v := range extra {
		params[k] = v
	}

	var body tenorResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&body).
		Get(t.Base + path)
	if err != nil {
		return nil, fmt.Errorf("tenor %v: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tenor %v: %v", path, resp.Status())
	}

	out := make([]Entry, 0, len(body.Results))
	for _, r := range body.Results {
		if len(r.Media) == 0 {
			continue
		}
		gif, ok := r.Media[0]["gif"]
		if !ok || gif.URL == "" {
			continue
		}
		e := Entry{URL: gif.URL, PreviewURL: gif.URL}
		if tiny, ok := r.Media[0]["tinygif"]; ok && tiny.URL != "" {
			e.PreviewURL = tiny.URL
		}
		out = append(out, e)
	}
	return out, nil
}
