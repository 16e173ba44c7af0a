package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hako/durafmt"
	clipboard "golang.design/x/clipboard"
)

var (
	doDebug bool
	// silent keeps log output out of the on-screen console.
	silent bool
)

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ", ") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	start := time.Now()
	var msgs stringList
	dataDir := flag.String("data", "", "directory for settings and the GIF cache")
	cacheDir := flag.String("cache", "", "GIF cache directory (default <data>/gifcache)")
	flag.BoolVar(&doDebug, "debug", false, "verbose/debug logging")
	flag.BoolVar(&silent, "silent", false, "do not echo errors into the chat window")
	flag.Var(&msgs, "msg", "show a chat message at startup (repeatable)")
	clearCache := flag.Bool("clearCache", false, "empty the GIF cache and exit")
	cacheSize := flag.Bool("cacheSize", false, "print GIF cache usage and exit")
	search := flag.String("search", "", "search Tenor, print GIF links and exit")
	trending := flag.Bool("trending", false, "print trending Tenor GIF links and exit")
	adminAddr := flag.String("admin", "", "serve the admin API on this address, e.g. 127.0.0.1:8089")
	flag.Parse()

	if *dataDir != "" {
		dataDirPath = *dataDir
	}
	setupLogging(doDebug)
	loadSettings()
	if *cacheDir != "" {
		gs.CacheDir = *cacheDir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer cancel()

	var err error
	gifs, err = newGIFPipeline(newImageFromImage)
	if err != nil {
		log.Fatalf("gif cache: %v", err)
	}
	defer gifs.Close()

	switch {
	case *cacheSize:
		s, err := cacheSummary(gifs.manager)
		if err != nil {
			log.Fatalf("gif cache: %v", err)
		}
		fmt.Println(s)
		return
	case *clearCache:
		silent = true
		if err := clearCaches(gifs.manager); err != nil {
			log.Fatalf("clear gif cache: %v", err)
		}
		fmt.Println(strings.Join(getConsoleMessages(), "\n"))
		return
	case *search != "" || *trending:
		if err := printSearch(ctx, *search); err != nil {
			log.Fatalf("search: %v", err)
		}
		return
	}

	if err := clipboard.Init(); err != nil {
		log.Printf("clipboard init: %v", err)
	}

	applySettings()
	ebiten.SetWindowSize(gs.WindowWidth, gs.WindowHeight)

	if *adminAddr != "" {
		go serveAdmin(ctx, *adminAddr, gifs.manager)
	}
	for _, m := range msgs {
		chatMessage(m)
	}

	runGame(ctx)
	cancel()
	logDebug("session ended after %v", durafmt.Parse(time.Since(start)).LimitFirstN(2))
}

func printSearch(ctx context.Context, q string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(gs.FetchTimeout)*time.Second)
	defer cancel()
	entries, err := gifs.search(ctx, q)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("[GIF:%s]\t%s\n", e.URL, e.PreviewURL)
	}
	return nil
}
