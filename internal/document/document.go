// Package document translates texts longer than a single model call can
// handle by splitting them into paragraphs and sentence-sized chunks.
package document

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/valpere/jatran/internal/chunker"
)

// Translator translates one chunk.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

type Options struct {
	// MaxRunes bounds each chunk; zero means chunker.DefaultMaxRunes.
	MaxRunes int
	// Concurrency bounds in-flight model calls; values below 1 mean 1.
	Concurrency int
}

var paragraphSep = regexp.MustCompile(`\n[ \t\r　]*\n`)

type piece struct {
	paragraph int
	text      string
}

// Translate returns the translation of text. Paragraphs are kept apart by a
// blank line; chunks within a paragraph are joined by a single space. The
// first chunk failure cancels the remaining calls and is returned.
func Translate(ctx context.Context, tr Translator, text string, opts Options) (string, error) {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	var pieces []piece
	paragraphs := 0
	for _, para := range paragraphSep.Split(text, -1) {
		chunks := chunker.Chunk(para, opts.MaxRunes)
		if len(chunks) == 0 {
			continue
		}
		for _, c := range chunks {
			pieces = append(pieces, piece{paragraph: paragraphs, text: c})
		}
		paragraphs++
	}

	results := make([]string, len(pieces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, p := range pieces {
		g.Go(func() error {
			out, err := tr.Translate(gctx, p.text)
			if err != nil {
				return fmt.Errorf("chunk %d/%d: %w", i+1, len(pieces), err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, p := range pieces {
		if i > 0 {
			if p.paragraph != pieces[i-1].paragraph {
				sb.WriteString("\n\n")
			} else if results[i] != "" && results[i-1] != "" {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(results[i])
	}
	return sb.String(), nil
}
