/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/valpere/jatran/internal"
	"github.com/valpere/jatran/internal/document"
	"github.com/valpere/jatran/internal/langcheck"
)

var (
	inputFile   string
	outputFile  string
	maxRunes    int
	concurrency int
	noCache     bool
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text locally without the HTTP API",
	Long: `Translate Japanese text with the configured model directly, without
a running "jatran serve".

The text comes from the argument, --input, or standard input. Long texts
are split at paragraph and sentence boundaries and translated chunk by
chunk; paragraphs are preserved in the output.

  jatran translate 'こんにちは'
  jatran translate -i chapter1.txt -o chapter1.en.txt --concurrency 4`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile != "" && inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("no input provided")
		}

		ctx := cmd.Context()

		db, err := openMemory(cfg.Cache.Path)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}
		useCache := db != nil && !noCache

		var checker *langcheck.Checker
		if cfg.Validate.Enabled {
			if checker, err = langcheck.New(cfg.Validate.Target); err != nil {
				return err
			}
		}

		tr, err := newTranslator(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize the translator: %w", err)
		}

		if useCache {
			if cached, found := cachedTranslation(ctx, db, text, tr.Model()); found {
				log.WithField("cache", "hit").Info("Using cached translation")
				return writeOutput(cmd, cached)
			}
		}

		start := time.Now()
		translation, err := document.Translate(ctx, tr, text, document.Options{
			MaxRunes:    maxRunes,
			Concurrency: concurrency,
		})

		if useCache {
			rec := internal.RequestRecord{
				ID:          uuid.NewString(),
				SourceText:  text,
				Translation: translation,
				Model:       tr.Model(),
				LatencyMs:   int(time.Since(start).Milliseconds()),
				Timestamp:   time.Now(),
			}
			if err != nil {
				rec.Error = err.Error()
			}
			if saveErr := db.SaveRequest(ctx, rec); saveErr != nil {
				log.WithField("error", saveErr).Warn("Failed to record request")
			}
		}

		if err != nil {
			return fmt.Errorf("translation failed: %w", err)
		}

		if useCache {
			if saveErr := db.SaveToMemory(ctx, text, tr.Model(), translation); saveErr != nil {
				log.WithField("error", saveErr).Warn("Failed to store translation")
			}
		}

		if checker != nil {
			if detected, ok := checker.Check(translation); !ok {
				log.WithFields(log.Fields{
					"detected": detected,
					"target":   checker.Target(),
				}).Warn("Translation does not look like the target language")
			}
		}

		log.WithField("latency", time.Since(start).Truncate(time.Millisecond)).Info("Translation complete")
		return writeOutput(cmd, translation)
	},
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), nil
	}
}

func writeOutput(cmd *cobra.Command, translation string) error {
	if outputFile == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), translation)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(translation+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Infof("Translation written to %s", outputFile)
	return nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file (default: argument or stdin)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	translateCmd.Flags().IntVar(&maxRunes, "max-chars", 400, "Maximum characters per model call")
	translateCmd.Flags().IntVar(&concurrency, "concurrency", 1, "Chunks translated in parallel")
	addModelFlags(translateCmd)
	translateCmd.Flags().String("cache", "", "SQLite translation memory path (default: disabled)")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Ignore the translation memory for this run")
}
