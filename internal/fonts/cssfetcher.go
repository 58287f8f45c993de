/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package fonts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	applog "canvasstudio/internal/log"
	"canvasstudio/internal/version"
)

// DefaultStylesheetURL is the css2 endpoint of the public font service.
const DefaultStylesheetURL = "https://fonts.googleapis.com/css2"

// maxFontBytes caps a single downloaded font file.
const maxFontBytes = 16 << 20

// CSSFetcher loads families by requesting a css2 stylesheet for them,
// downloading the referenced font files and registering them in Library.
type CSSFetcher struct {
	BaseURL string
	Client  *http.Client
	Library *Library
	Log     *slog.Logger
	// Parallel bounds concurrent font file downloads (default 4).
	Parallel int
}

// Face is one @font-face rule of a stylesheet.
type Face struct {
	Family string
	Weight Weight
	Italic bool
	Subset string
	URL    string
}

// StylesheetURL builds the css2 URL for req:
// base?family=A:wght@100;200;...&family=B:wght@...&display=swap
func StylesheetURL(base string, req Request) string {
	if base == "" {
		base = DefaultStylesheetURL
	}
	ws := make([]string, 0, len(req.Weights))
	for _, w := range req.Weights {
		ws = append(ws, strconv.Itoa(int(w)))
	}
	var b strings.Builder
	b.WriteString(base)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	for _, f := range req.Families {
		b.WriteString(sep)
		sep = "&"
		b.WriteString("family=")
		b.WriteString(strings.ReplaceAll(strings.TrimSpace(f), " ", "+"))
		if len(ws) > 0 {
			b.WriteString(":wght@")
			b.WriteString(strings.Join(ws, ";"))
		}
	}
	b.WriteString(sep)
	b.WriteString("display=swap")
	return b.String()
}

var (
	faceBlockRe = regexp.MustCompile(`(?s)(?:/\*\s*([A-Za-z0-9\-\[\]. ]+?)\s*\*/\s*)?@font-face\s*\{([^}]*)\}`)
	declRe      = regexp.MustCompile(`(?s)([a-z\-]+)\s*:\s*([^;]+);?`)
	urlRe       = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)
)

// ParseStylesheet extracts @font-face rules. The comment preceding a rule, as
// emitted by the font service, names its script subset.
func ParseStylesheet(css string) []Face {
	var out []Face
	for _, m := range faceBlockRe.FindAllStringSubmatch(css, -1) {
		f := Face{Subset: strings.ToLower(strings.TrimSpace(m[1])), Weight: Regular}
		for _, d := range declRe.FindAllStringSubmatch(m[2], -1) {
			val := strings.TrimSpace(d[2])
			switch d[1] {
			case "font-family":
				f.Family = strings.Trim(val, `'" `)
			case "font-weight":
				// variable fonts declare a range such as "100 900"
				if fs := strings.Fields(val); len(fs) > 0 {
					if w, err := ParseWeight(fs[0]); err == nil {
						f.Weight = w
					}
				}
			case "font-style":
				f.Italic = val == "italic" || strings.HasPrefix(val, "oblique")
			case "src":
				if u := urlRe.FindStringSubmatch(val); u != nil {
					f.URL = u[1]
				}
			}
		}
		if f.Family != "" && f.URL != "" {
			out = append(out, f)
		}
	}
	return out
}

func (c *CSSFetcher) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c *CSSFetcher) get(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	// A non-browser agent makes the service answer with TrueType sources.
	req.Header.Set("User-Agent", "canvasstudio/"+version.String())
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// Fetch implements Fetcher. A failing stylesheet request is an error; a
// failing or unparseable font file is logged and skipped.
func (c *CSSFetcher) Fetch(ctx context.Context, req Request) error {
	lg := applog.WithOperation(applog.Or(c.Log, "fonts"), "stylesheet")
	css, err := c.get(ctx, StylesheetURL(c.BaseURL, req), 1<<20)
	if err != nil {
		return fmt.Errorf("fetch stylesheet: %w", err)
	}
	faces := ParseStylesheet(string(css))
	if len(req.Subsets) > 0 {
		faces = slices.DeleteFunc(faces, func(f Face) bool {
			return f.Subset != "" && !slices.Contains(req.Subsets, f.Subset)
		})
	}
	if c.Library == nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	n := c.Parallel
	if n <= 0 {
		n = 4
	}
	g.SetLimit(n)
	seen := make(map[string]bool)
	for _, f := range faces {
		if seen[f.URL] {
			continue
		}
		seen[f.URL] = true
		g.Go(func() error {
			data, err := c.get(gctx, f.URL, maxFontBytes)
			if err != nil {
				lg.Debug("font file unavailable", slog.String("family", f.Family), slog.Any("err", err))
				return nil
			}
			if err := c.Library.Register(f.Family, f.Weight, f.Italic, data); err != nil {
				lg.Debug("font file skipped", slog.String("family", f.Family), slog.Any("err", err))
			}
			return nil
		})
	}
	_ = g.Wait()
	lg.Debug("stylesheet applied", slog.Int("faces", len(faces)), slog.Int("families", len(req.Families)))
	return ctx.Err()
}
