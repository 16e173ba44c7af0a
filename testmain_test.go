package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestMain keeps settings and logs written by tests out of the repo.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "gifchat-test")
	if err != nil {
		panic(err)
	}
	dataDirPath = filepath.Join(dir, "data")
	logDir = filepath.Join(dir, "logs")
	silent = true
	gin.SetMode(gin.TestMode)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}
