// Package logging configures the shared logrus logger and provides the gin
// middleware that logs requests and recovers from panics.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/valpere/jatran/internal/config"
)

var (
	writerMu  sync.Mutex
	logWriter *lumberjack.Logger
)

// Formatter renders entries as
// [2026-10-19 20:14:04] [a1b2c3d4] [info ] [server.go:88] message key=value
type Formatter struct{}

// fieldOrder fixes the order of printed fields; other fields are dropped.
var fieldOrder = []string{"model", "backend", "addr", "status", "latency", "cache", "detected", "target", "error"}

func (f *Formatter) Format(entry *log.Entry) ([]byte, error) {
	buffer := entry.Buffer
	if buffer == nil {
		buffer = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	message := strings.TrimRight(entry.Message, "\r\n")

	reqID := "--------"
	if id, ok := entry.Data["request_id"].(string); ok && id != "" {
		reqID = id
	}

	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}

	var fields []string
	for _, k := range fieldOrder {
		if v, ok := entry.Data[k]; ok {
			fields = append(fields, fmt.Sprintf("%s=%v", k, v))
		}
	}
	fieldsStr := ""
	if len(fields) > 0 {
		fieldsStr = " " + strings.Join(fields, " ")
	}

	if entry.Caller != nil {
		fmt.Fprintf(buffer, "[%s] [%s] [%-5s] [%s:%d] %s%s\n", timestamp, reqID, level, filepath.Base(entry.Caller.File), entry.Caller.Line, message, fieldsStr)
	} else {
		fmt.Fprintf(buffer, "[%s] [%s] [%-5s] %s%s\n", timestamp, reqID, level, message, fieldsStr)
	}
	return buffer.Bytes(), nil
}

// Setup applies cfg to the standard logrus logger. Output goes to stderr
// unless cfg.File is set, in which case a rotating file is used. Stdout is
// left untouched so that `jatran pipe` output stays clean.
func Setup(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("logging: invalid level %q: %w", cfg.Level, err)
	}

	writerMu.Lock()
	defer writerMu.Unlock()

	log.SetLevel(level)
	log.SetReportCaller(true)
	log.SetFormatter(&Formatter{})

	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return fmt.Errorf("logging: failed to create log directory: %w", err)
		}
		logWriter = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		out = logWriter
	}
	log.SetOutput(out)

	gin.DefaultWriter = log.StandardLogger().Writer()
	gin.DefaultErrorWriter = log.StandardLogger().WriterLevel(log.ErrorLevel)
	gin.DebugPrintFunc = func(format string, values ...interface{}) {
		log.Debugf(strings.TrimRight(format, "\r\n"), values...)
	}

	return nil
}

// Close flushes and closes the rotating log file, if any.
func Close() {
	writerMu.Lock()
	defer writerMu.Unlock()
	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}
}
