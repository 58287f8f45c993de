/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"canvasstudio/internal/crash"
	"canvasstudio/internal/editor"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/ui"
)

var openID string

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the desktop editor (build with -tags fyne for the full UI)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, tok, err := loadConfig()
		if err != nil {
			return err
		}
		l := applog.WithComponent("cli")
		ctx := context.Background()
		a, err := editor.Build(ctx, cfg, tok, nil)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				l.Warn("close failed", slog.Any("err", err))
			}
		}()
		defer crash.Recover(a.Session)
		if openID != "" {
			if err := a.Open(ctx, openID); err != nil {
				return fmt.Errorf("open %s: %w", openID, err)
			}
		}
		return ui.Run(a)
	},
}

func init() {
	uiCmd.Flags().StringVar(&openID, "open", "", "stored document id to open")
	rootCmd.AddCommand(uiCmd)
}
