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
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/jatran/internal/client"
	"github.com/valpere/jatran/internal/config"
	"github.com/valpere/jatran/internal/logging"
)

var pipeCmd = &cobra.Command{
	Use:   "pipe",
	Short: "Translate standard input through the translation API",
	Long: `Read all of standard input, send it to a running "jatran serve" and
print only the translation to standard output.

  echo 'こんにちは' | jatran pipe
  cat notes.txt | jatran pipe --server http://gpu-box:8000/translate > notes.en.txt

Exits 1 with a message on standard error when the input is empty, the
server cannot be reached, or the response has no translation.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		code := client.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), client.Options{
			ServerURL: cfg.Client.ServerURL,
			Timeout:   cfg.Client.Timeout,
		})
		if code != client.ExitOK {
			logging.Close()
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(pipeCmd)

	pipeCmd.Flags().String("server", config.DefaultServerURL, "Translation endpoint URL")
	pipeCmd.Flags().Duration("timeout", 0, "Request timeout (0 waits indefinitely)")
}
