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
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/valpere/jatran/internal/server"
	"github.com/valpere/jatran/internal/langcheck"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the translation API",
	Long: `Load the translation model and serve the HTTP API:

  GET  /           health check
  POST /translate  {"text": "..."} -> {"translation": "..."}

The model is verified (and pulled, for Ollama) before the listener opens;
if that fails the command exits without serving.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if log.IsLevelEnabled(log.DebugLevel) {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		tr, err := newTranslator(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize the translator: %w", err)
		}

		opts := server.Options{ShutdownTimeout: cfg.Server.ShutdownTimeout}

		db, err := openMemory(cfg.Cache.Path)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
			opts.Memory = db
			log.WithField("cache", cfg.Cache.Path).Info("Translation memory enabled")
		}

		if cfg.Validate.Enabled {
			checker, err := langcheck.New(cfg.Validate.Target)
			if err != nil {
				return err
			}
			opts.Checker = checker
		}

		return server.New(cfg.Server.Addr, tr, opts).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8000", "Listen address")
	addModelFlags(serveCmd)
	serveCmd.Flags().String("cache", "", "SQLite translation memory path (default: disabled)")
}
