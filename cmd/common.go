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
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/valpere/jatran/internal/config"
	"github.com/valpere/jatran/internal/store"
	"github.com/valpere/jatran/internal/translator"
)

// addModelFlags registers the flags that select the translation model.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", config.BackendOllama, "Model server: ollama or openai (OpenAI-compatible)")
	cmd.Flags().String("model", config.DefaultModel, "Model name")
	cmd.Flags().String("model-url", "", "Model server base URL (default depends on backend)")
	cmd.Flags().Int("max-tokens", 256, "Maximum new tokens per translation")
	cmd.Flags().Bool("pull", true, "Pull the model into Ollama when it is missing")
}

// newTranslator builds the configured backend and loads the model.
func newTranslator(ctx context.Context) (*translator.Translator, error) {
	backend, err := translator.NewBackend(cfg.Model)
	if err != nil {
		return nil, err
	}
	return translator.New(ctx, backend, translator.Options{
		SystemPrompt: cfg.Model.SystemPrompt,
		MaxTokens:    cfg.Model.MaxTokens,
	})
}

// openMemory opens the translation memory at path. An empty path disables
// it and returns a nil store.
func openMemory(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// cachedTranslation looks text up in the translation memory. A failed lookup
// is logged and treated as a miss.
func cachedTranslation(ctx context.Context, db *store.Store, text, model string) (string, bool) {
	cached, found, err := db.GetCachedTranslation(ctx, text, model)
	if err != nil {
		log.WithField("error", err).Warn("Translation memory lookup failed")
		return "", false
	}
	return cached, found
}
