package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/valpere/jatran/internal"
	"github.com/valpere/jatran/internal/logging"
	"github.com/valpere/jatran/internal/translator"
)

const (
	healthMessage     = "Translation API is running"
	emptyInputMessage = "Input text cannot be empty."
)

// translateBody distinguishes a missing "text" field from an empty one.
type translateBody struct {
	Text *string `json:"text"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, internal.HealthResponse{
		Status:  "ok",
		Message: healthMessage,
	})
}

func (s *Server) handleTranslate(c *gin.Context) {
	var body translateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusUnprocessableEntity, internal.ErrorResponse{Detail: "Invalid request body: " + err.Error()})
		return
	}
	if body.Text == nil {
		c.JSON(http.StatusUnprocessableEntity, internal.ErrorResponse{Detail: "Field required: text"})
		return
	}

	ctx := c.Request.Context()
	start := time.Now()

	translation, cacheHit, err := s.translate(ctx, *body.Text)

	s.record(ctx, *body.Text, translation, cacheHit, time.Since(start), err)

	if err != nil {
		_ = c.Error(err)
		status, detail := errorResponse(err)
		c.JSON(status, internal.ErrorResponse{Detail: detail})
		return
	}

	s.checkOutput(ctx, translation)
	c.JSON(http.StatusOK, internal.TranslationResponse{Translation: translation})
}

// errorResponse maps translation error kinds to an HTTP status and detail.
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, translator.ErrEmptyInput):
		return http.StatusBadRequest, emptyInputMessage
	default:
		return http.StatusInternalServerError, "An error occurred: " + err.Error()
	}
}

// translate consults the memory before calling the model. Memory failures
// are logged and never fail the request.
func (s *Server) translate(ctx context.Context, text string) (string, bool, error) {
	if strings.TrimSpace(text) == "" {
		return "", false, translator.ErrEmptyInput
	}

	entry := logging.FromContext(ctx)
	model := s.translator.Model()

	if s.opts.Memory != nil {
		cached, found, err := s.opts.Memory.GetCachedTranslation(ctx, text, model)
		if err != nil {
			entry.WithField("error", err).Warn("Translation memory lookup failed")
		} else if found {
			entry.WithField("cache", "hit").Debug("Serving cached translation")
			return cached, true, nil
		}
	}

	translation, err := s.translator.Translate(ctx, text)
	if err != nil {
		return "", false, err
	}

	if s.opts.Memory != nil {
		if err := s.opts.Memory.SaveToMemory(ctx, text, model, translation); err != nil {
			entry.WithField("error", err).Warn("Failed to store translation")
		}
	}
	return translation, false, nil
}

func (s *Server) record(ctx context.Context, text, translation string, cacheHit bool, latency time.Duration, err error) {
	if s.opts.Memory == nil || strings.TrimSpace(text) == "" {
		return
	}

	rec := internal.RequestRecord{
		ID:          uuid.NewString(),
		SourceText:  text,
		Translation: translation,
		Model:       s.translator.Model(),
		CacheHit:    cacheHit,
		LatencyMs:   int(latency.Milliseconds()),
		Timestamp:   time.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}

	// The request context may already be cancelled by a disconnected client.
	if saveErr := s.opts.Memory.SaveRequest(context.WithoutCancel(ctx), rec); saveErr != nil {
		logging.FromContext(ctx).WithField("error", saveErr).Warn("Failed to record request")
	}
}

func (s *Server) checkOutput(ctx context.Context, translation string) {
	if s.opts.Checker == nil || strings.TrimSpace(translation) == "" {
		return
	}
	if detected, ok := s.opts.Checker.Check(translation); !ok {
		logging.FromContext(ctx).WithFields(log.Fields{
			"detected": detected,
			"target":   s.opts.Checker.Target(),
		}).Warn("Translation does not look like the target language")
	}
}
