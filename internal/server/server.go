// Package server exposes the translation call over HTTP:
//
//	GET  /           health check
//	POST /translate  {"text": "..."} -> {"translation": "..."}
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/jatran/internal"
	"github.com/valpere/jatran/internal/logging"
)

// Translator is the loaded model as seen by the HTTP layer.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
	Model() string
}

// Memory is the optional translation cache and request log.
type Memory interface {
	GetCachedTranslation(ctx context.Context, sourceText, model string) (string, bool, error)
	SaveToMemory(ctx context.Context, sourceText, model, translation string) error
	SaveRequest(ctx context.Context, rec internal.RequestRecord) error
}

// LanguageChecker reports the language detected in a translation and whether
// it is the target one.
type LanguageChecker interface {
	Check(translation string) (detected string, ok bool)
	Target() string
}

type Options struct {
	ShutdownTimeout time.Duration
	// Memory and Checker are optional.
	Memory  Memory
	Checker LanguageChecker
}

type Server struct {
	translator Translator
	opts       Options
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds the server around an already loaded translator.
func New(addr string, tr Translator, opts Options) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		translator: tr,
		opts:       opts,
	}

	engine := gin.New()
	engine.Use(logging.GinLogger(), logging.GinRecovery())
	engine.GET("/", s.handleHealth)
	engine.POST("/translate", s.handleTranslate)
	s.engine = engine

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(log.Fields{
			"addr":  s.httpServer.Addr,
			"model": s.translator.Model(),
		}).Info("Translation API is running")

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down translation API")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
