package logging

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/valpere/jatran/internal/config"
)

func TestFormatter_Format(t *testing.T) {
	entry := &log.Entry{
		Logger:  log.StandardLogger(),
		Time:    time.Date(2026, 10, 19, 20, 14, 4, 0, time.UTC),
		Level:   log.WarnLevel,
		Message: "model slow\n",
		Data: log.Fields{
			"request_id": "a1b2c3d4",
			"model":      "lfm2",
			"ignored":    "x",
		},
	}

	out, err := (&Formatter{}).Format(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "[2026-10-19 20:14:04] [a1b2c3d4] [warn ] model slow model=lfm2\n"
	if string(out) != want {
		t.Errorf("got %q, want %q", string(out), want)
	}
}

func TestFormatter_NoRequestID(t *testing.T) {
	entry := &log.Entry{
		Logger:  log.StandardLogger(),
		Time:    time.Now(),
		Level:   log.InfoLevel,
		Message: "hello",
		Data:    log.Fields{},
	}

	out, err := (&Formatter{}).Format(entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), "[--------]") {
		t.Errorf("expected placeholder request id, got %q", string(out))
	}
}

func TestSetup_InvalidLevel(t *testing.T) {
	if err := Setup(config.LogConfig{Level: "chatty"}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestSetup_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "jatran.log")
	if err := Setup(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() {
		Close()
		log.SetOutput(os.Stderr)
	})

	log.Info("written to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("expected log line in file, got %q", string(data))
	}
}

func TestRequestIDContext(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}

	ctx := WithRequestID(context.Background(), "deadbeef")
	if got := GetRequestID(ctx); got != "deadbeef" {
		t.Errorf("expected deadbeef, got %q", got)
	}
}

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	if len(id) != 8 {
		t.Errorf("expected 8 characters, got %q", id)
	}
	if id == GenerateRequestID() {
		t.Error("expected distinct ids")
	}
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	r := gin.New()
	r.Use(GinLogger(), GinRecovery())
	r.GET("/ok", func(c *gin.Context) {
		if GetRequestID(c.Request.Context()) == "" {
			t.Error("expected request id in handler context")
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected request id header")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "An error occurred") {
		t.Errorf("unexpected body %q", w.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("expected panic to be logged, got %q", buf.String())
	}
}
