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
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"canvasstudio/internal/crash"
	"canvasstudio/internal/editor"
	"canvasstudio/internal/hostapi"
	applog "canvasstudio/internal/log"
)

var (
	serveAddr     string
	serveAutosave time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the editor over HTTP/JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, tok, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		l := applog.WithComponent("cli")
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

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
				return err
			}
		}

		srv := hostapi.New(a.Session, a.Raster, nil)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Listen(cfg.Server.Addr) })
		g.Go(func() error {
			<-gctx.Done()
			return srv.Shutdown()
		})
		if serveAutosave > 0 {
			g.Go(func() error {
				t := time.NewTicker(serveAutosave)
				defer t.Stop()
				for {
					select {
					case <-gctx.Done():
						return nil
					case <-t.C:
						if where, err := a.Autosave(gctx); err != nil {
							l.Warn("autosave failed", slog.Any("err", err))
						} else {
							l.Debug("autosaved", slog.String("to", where))
						}
					}
				}
			})
		}
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().DurationVar(&serveAutosave, "autosave", 0, "autosave interval, 0 disables")
	serveCmd.Flags().StringVar(&openID, "open", "", "stored document id to open")
	rootCmd.AddCommand(serveCmd)
}
