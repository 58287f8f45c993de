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
	"strings"

	"github.com/spf13/cobra"

	"canvasstudio/internal/icons"
)

var (
	iconsLimit int
	iconsURLs  bool
)

var iconsCmd = &cobra.Command{
	Use:   "icons",
	Short: "Icon service commands",
}

var iconsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the icon service",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, tok, err := loadConfig()
		if err != nil {
			return err
		}
		limit := cfg.Icons.Limit
		if iconsLimit > 0 {
			limit = iconsLimit
		}
		c := icons.NewClient(cfg.Icons.BaseURL, tok, cfg.Icons.Timeout(), nil)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Icons.Timeout())
		defer cancel()
		names, err := c.Search(ctx, strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, n := range names {
			if iconsURLs {
				fmt.Fprintf(out, "%s\t%s\n", n, c.SVGURL(n, 128, 128, cfg.Icons.Color))
				continue
			}
			fmt.Fprintln(out, n)
		}
		return nil
	},
}

func init() {
	iconsSearchCmd.Flags().IntVar(&iconsLimit, "limit", 0, "maximum results (default from config)")
	iconsSearchCmd.Flags().BoolVar(&iconsURLs, "urls", false, "print SVG URLs next to names")
	iconsCmd.AddCommand(iconsSearchCmd)
	rootCmd.AddCommand(iconsCmd)
}
