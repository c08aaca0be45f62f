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

	"github.com/spf13/cobra"

	"github.com/valpere/jatran/internal/config"
	"github.com/valpere/jatran/internal/logging"
)

var version = "0.1.0"

var (
	cfgFile string
	v       = config.New()
	cfg     *config.Config
)

// flagKeys maps command-line flags to config keys. Only the flags of the
// command being run are bound, so subcommands may share flag names.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-file":   "log.file",
	"addr":       "server.addr",
	"cache":      "cache.path",
	"backend":    "model.backend",
	"model":      "model.name",
	"model-url":  "model.base_url",
	"max-tokens": "model.max_tokens",
	"pull":       "model.pull",
	"server":     "client.server_url",
	"timeout":    "client.timeout",
}

var rootCmd = &cobra.Command{
	Use:   "jatran",
	Short: "Japanese to English translation service",
	Long: `A small HTTP service that translates Japanese text into English with a
local translation model, plus a pipe client for shell use.

  jatran serve                 start the translation API
  echo 'こんにちは' | jatran pipe   translate stdin through the API
  jatran translate -i ja.txt   translate a file without the API

Settings come from flags, JATRAN_* environment variables, a .env file
and an optional --config file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		for name, key := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}

		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		return logging.Setup(cfg.Log)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "Rotating log file (default: stderr)")
}
