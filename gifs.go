package main

import (
	"context"
	"image"
	"log"
	"time"

	"gifchat/gifcache"
	"gifchat/gifdec"
	"gifchat/gifref"
	"gifchat/giftag"
	"gifchat/gifres"

	"github.com/hajimehoshi/ebiten/v2"
)

// gifPipeline ties the tag codec to the acquisition manager for the viewer.
type gifPipeline struct {
	registry *gifref.Registry
	encoder  *giftag.Encoder
	resolver *gifres.Resolver
	tenor    *gifres.Tenor
	// manager is nil when only the codec is needed (command line modes).
	manager *gifcache.Manager[*ebiten.Image]
}

var gifs *gifPipeline

// newCodec builds the registry and encoder from the current settings.
func newCodec() *gifPipeline {
	reg := gifref.New()
	enc := giftag.NewEncoder(reg)
	enc.LineHeight = gs.LineHeight
	enc.DefaultWidth = gs.DefaultWidth
	enc.DefaultHeight = gs.DefaultHeight
	return &gifPipeline{registry: reg, encoder: enc}
}

// newGIFPipeline builds the full pipeline. upload turns decoded frames into
// renderer images and is only called from the game loop.
func newGIFPipeline(upload func(*image.RGBA) *ebiten.Image) (*gifPipeline, error) {
	p := newCodec()
	timeout := time.Duration(gs.FetchTimeout) * time.Second
	p.resolver = gifres.New(gifres.Options{
		Hosts:          gs.IndirectHosts,
		UserAgent:      gs.UserAgent,
		Timeout:        timeout,
		PagesPerSecond: gs.ResolveRate,
	})
	p.tenor = gifres.NewTenor(nil)
	p.tenor.Key = gs.TenorKey

	opts := gifcache.Options[*ebiten.Image]{
		Dir:          gifCacheDir(),
		Budget:       gs.CacheBudgetMB << 20,
		MaxDownloads: gs.MaxDownloads,
		UserAgent:    gs.UserAgent,
		Timeout:      timeout,
		Resolver:     p.resolver,
		Decode: gifdec.Options{
			MaxFrames:    gs.MaxFrames,
			DefaultDelay: time.Duration(gs.DefaultFrameMS) * time.Millisecond,
			MaxDimension: gs.MaxFrameDimension,
		},
		Upload: upload,
	}
	if debugEnabled() {
		opts.Debugf = logDebug
	}
	m, err := gifcache.New(opts)
	if err != nil {
		p.resolver.Close()
		return nil, err
	}
	p.manager = m
	return p, nil
}

func (p *gifPipeline) Close() {
	if p.manager != nil {
		if err := p.manager.Close(); err != nil {
			log.Printf("close gif manager: %v", err)
		}
	}
	if p.resolver != nil {
		p.resolver.Close()
	}
}

// sourceURL maps a marker to the URL it stands for.
func (p *gifPipeline) sourceURL(t giftag.Tag) (string, bool) {
	return t.Resolve(p.registry)
}

// prefetch starts loading every GIF referenced by msg.
func (p *gifPipeline) prefetch(msg string) {
	if p.manager == nil {
		return
	}
	for _, t := range giftag.FindAll(msg) {
		if url, ok := p.sourceURL(t); ok {
			p.manager.Prefetch(url)
		}
	}
}

// search queries Tenor, or returns trending GIFs for an empty query.
func (p *gifPipeline) search(ctx context.Context, q string) ([]gifres.Entry, error) {
	if p.tenor == nil {
		p.tenor = gifres.NewTenor(nil)
		p.tenor.Key = gs.TenorKey
	}
	if q == "" {
		return p.tenor.Trending(ctx)
	}
	return p.tenor.Search(ctx, q)
}
