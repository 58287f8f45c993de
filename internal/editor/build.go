/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"canvasstudio/internal/assets"
	"canvasstudio/internal/config"
	"canvasstudio/internal/fonts"
	"canvasstudio/internal/icons"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/render"
	"canvasstudio/internal/store"
)

// assetTimeout bounds a single icon or image download.
const assetTimeout = 30 * time.Second

// App is a session with its concrete backends.
type App struct {
	*Session
	Raster  *render.Raster
	Library *fonts.Library
	Store   store.Store
	Assets  *assets.Fetcher
	IconAPI *icons.Client
}

// Build opens the configured store and creates a session rendering into a
// software raster, with fonts from the stylesheet service and icons from the
// icon service. Popular fonts are preloaded in the background when enabled.
func Build(ctx context.Context, cfg config.AppConfig, iconToken string, logger *slog.Logger) (*App, error) {
	lg := applog.Or(logger, "editor")
	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	lib := fonts.NewLibrary()
	css := &fonts.CSSFetcher{
		BaseURL: cfg.Fonts.StylesheetURL,
		Client:  &http.Client{Timeout: cfg.Fonts.Timeout()},
		Library: lib,
		Log:     logger,
	}
	loader := fonts.NewLoader(css, fonts.LoaderOptions{
		Timeout: cfg.Fonts.Timeout(),
		Subsets: cfg.Fonts.Subsets,
		Logger:  logger,
	})

	var cache assets.Cache
	if sq, ok := st.(*store.SQLite); ok {
		cache = sq
	}
	fetcher := assets.NewFetcher(&http.Client{Timeout: assetTimeout}, cache, logger)
	raster := render.NewRaster(lib, fetcher, logger)
	iconAPI := icons.NewClient(cfg.Icons.BaseURL, iconToken, cfg.Icons.Timeout(), logger)

	reportDir := ""
	if dir, err := config.ConfigDir(); err == nil {
		reportDir = filepath.Join(dir, "crash")
	}

	sess := New(Deps{
		Config:     cfg,
		Surface:    raster,
		Store:      st,
		Fonts:      loader,
		Measurer:   lib,
		Assets:     fetcher,
		IconSearch: iconAPI.Search,
		IconURL: func(name string) string {
			return iconAPI.SVGURL(name, IconSVGSize, IconSVGSize, cfg.Icons.Color)
		},
		ReportDir: reportDir,
		Logger:    logger,
		Closers:   []io.Closer{st},
	})
	if cfg.Fonts.PreloadPopular {
		go func() {
			if err := loader.PreloadPopular(context.WithoutCancel(ctx)); err != nil {
				lg.Debug("font preload ended", slog.Any("err", err))
			}
		}()
	}
	lg.Info("editor ready",
		slog.String("store", cfg.Storage.Driver),
		slog.Int("width", cfg.Editor.DefaultWidth),
		slog.Int("height", cfg.Editor.DefaultHeight))
	return &App{Session: sess, Raster: raster, Library: lib, Store: st, Assets: fetcher, IconAPI: iconAPI}, nil
}
