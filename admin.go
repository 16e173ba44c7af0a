package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gifchat/gifcache"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/hako/durafmt"
)

// gifAdmin is the part of the GIF manager the admin endpoints need.
type gifAdmin interface {
	CacheSize() (int64, error)
	ClearCache() error
	Stats() gifcache.Stats
	Metadata(url string) (gifcache.Metadata, bool)
}

type errorResponse struct {
	Error string `json:"error"`
}

type cacheResponse struct {
	Bytes int64  `json:"bytes"`
	Human string `json:"human"`
}

type gifResponse struct {
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Loading  bool   `json:"loading"`
	Failed   bool   `json:"failed"`
	Frames   int    `json:"frames"`
	Duration string `json:"duration"`
}

type chatRequest struct {
	Text string `json:"text" binding:"required"`
}

type gifRequest struct {
	URL    string `json:"url" binding:"required"`
	Width  int    `json:"width" binding:"min=0"`
	Height int    `json:"height" binding:"min=0"`
}

type chatResponse struct {
	Messages int      `json:"messages"`
	GIFs     []string `json:"gifs"`
}

// chatBackend is the chat window as seen from the admin API.
type chatBackend interface {
	// Post delivers a message as if it came from the chat transport.
	Post(text string)
	PostGIF(url string, w, h int)
	Len() int
	GIFs() []string
}

// liveChat is the chatBackend of the running viewer.
type liveChat struct{}

func (liveChat) Post(text string)             { chatMessage(text) }
func (liveChat) PostGIF(url string, w, h int) { postGIF(url, w, h) }
func (liveChat) Len() int                     { return chatLog.Len() }
func (liveChat) GIFs() []string               { return chatGIFs() }

type adminHandler struct {
	gifs gifAdmin
	chat chatBackend
}

func newAdminRouter(gifs gifAdmin, chat chatBackend) *gin.Engine {
	h := &adminHandler{gifs: gifs, chat: chat}
	r := gin.New()
	r.Use(gin.Recovery())
	api := r.Group("/api")
	api.GET("/cache", h.getCache)
	api.DELETE("/cache", h.clearCache)
	api.GET("/stats", h.getStats)
	api.GET("/gif", h.getGIF)
	api.POST("/gif", h.postGIF)
	api.GET("/chat", h.getChat)
	api.POST("/chat", h.postChat)
	return r
}

func (h *adminHandler) getCache(c *gin.Context) {
	size, err := h.gifs.CacheSize()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, cacheResponse{Bytes: size, Human: humanize.Bytes(uint64(size))})
}

func (h *adminHandler) clearCache(c *gin.Context) {
	if err := h.gifs.ClearCache(); err != nil {
		logError("admin: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *adminHandler) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.gifs.Stats())
}

func (h *adminHandler) getGIF(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}
	md, ok := h.gifs.Metadata(url)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "gif not requested"})
		return
	}
	c.JSON(http.StatusOK, gifResponse{
		URL:      url,
		Width:    md.Width,
		Height:   md.Height,
		Loading:  md.Loading,
		Failed:   md.Failed,
		Frames:   md.Frames,
		Duration: durafmt.Parse(md.Duration).LimitFirstN(2).String(),
	})
}

func (h *adminHandler) postChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.chat.Post(req.Text)
	c.Status(http.StatusAccepted)
}

func (h *adminHandler) postGIF(c *gin.Context) {
	var req gifRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.chat.PostGIF(req.URL, req.Width, req.Height)
	c.Status(http.StatusAccepted)
}

func (h *adminHandler) getChat(c *gin.Context) {
	gifs := h.chat.GIFs()
	if gifs == nil {
		gifs = []string{}
	}
	c.JSON(http.StatusOK, chatResponse{Messages: h.chat.Len(), GIFs: gifs})
}

// serveAdmin runs the admin API on addr until ctx is done.
func serveAdmin(ctx context.Context, addr string, gifs gifAdmin) {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{Addr: addr, Handler: newAdminRouter(gifs, liveChat{})}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()
	logDebug("admin listening on %v", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logError("admin: %v", err)
	}
}
