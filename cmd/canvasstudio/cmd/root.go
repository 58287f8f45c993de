/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cmd holds the canvasstudio command tree.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"canvasstudio/internal/config"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/version"
)

var (
	// Global flags
	verbose   bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "canvasstudio",
	Short: "Creative canvas editor",
	Long: `Canvas Studio places shapes, text, icons, images and freehand strokes on a
resizable document.

Examples:
  canvasstudio ui                      # Desktop editor (build with -tags fyne)
  canvasstudio serve --addr :8090      # HTTP/JSON host for a browser front end
  canvasstudio fonts search sans       # Search the font catalog
  canvasstudio icons search arrow      # Query the icon service
  canvasstudio docs list               # List stored documents`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		opts := applog.FromEnv()
		if verbose {
			opts.Level = "debug"
		}
		if logFormat != "" {
			opts.Format = logFormat
		}
		applog.Init(opts)
		applog.WithComponent("cli").Debug("start", slog.String("cmd", cmd.CommandPath()))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Fyne's locale parsing fails when LANG=C
	if lang := os.Getenv("LANG"); lang == "" || lang == "C" {
		_ = os.Setenv("LANG", "en_US.UTF-8")
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")
}

// loadConfig reads the user config and re-initializes logging from it. Flags
// win over the file.
func loadConfig() (config.AppConfig, string, error) {
	cfg, tok, err := config.Load()
	if err != nil {
		return cfg, "", fmt.Errorf("load config: %w", err)
	}
	opts := applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	}
	if verbose {
		opts.Level = "debug"
	}
	if strings.TrimSpace(logFormat) != "" {
		opts.Format = logFormat
	}
	applog.Init(opts)
	return cfg, tok, nil
}
