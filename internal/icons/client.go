/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package icons talks to the icon search service and debounces the search box.
package icons

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	applog "canvasstudio/internal/log"
)

// Client calls the icon service:
//
//	GET /search?query=<q>&limit=<n>  -> ["name", ...] or {"icons": ["name", ...]}
//	GET /svg?name=<id>&width=<w>&height=<h>&color=<hex>
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Log     *slog.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
		Log:     applog.Or(logger, "icons"),
	}
}

// Search returns icon identifiers matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	q := url.Values{}
	q.Set("query", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("icon search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("icon search: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("icon search: %w", err)
	}
	return parseSearch(body)
}

func parseSearch(body []byte) ([]string, error) {
	var list []string
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Icons []string `json:"icons"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("icon search: decode: %w", err)
	}
	return wrapped.Icons, nil
}

// SVGURL returns the URL of a rendered glyph, usable as an image source.
func (c *Client) SVGURL(name string, width, height int, color string) string {
	q := url.Values{}
	q.Set("name", name)
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))
	if color != "" {
		q.Set("color", color)
	}
	return c.BaseURL + "/svg?" + q.Encode()
}
