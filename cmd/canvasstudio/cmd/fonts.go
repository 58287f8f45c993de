/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"canvasstudio/internal/fonts"
)

var fontsJSON bool

var fontsCmd = &cobra.Command{
	Use:   "fonts",
	Short: "Font catalog commands",
}

var fontsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the font catalog, popular families first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := fonts.DefaultCatalog()
		q := strings.Join(args, " ")
		found := cat.Search(q)
		out := cmd.OutOrStdout()
		if fontsJSON {
			type row struct {
				Family  string `json:"family"`
				Popular bool   `json:"popular"`
			}
			rows := make([]row, len(found))
			for i, f := range found {
				rows[i] = row{Family: f, Popular: cat.IsPopular(f)}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		for _, f := range found {
			mark := " "
			if cat.IsPopular(f) {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %s\n", mark, f)
		}
		return nil
	},
}

func init() {
	fontsSearchCmd.Flags().BoolVar(&fontsJSON, "json", false, "output as JSON")
	fontsCmd.AddCommand(fontsSearchCmd)
	rootCmd.AddCommand(fontsCmd)
}
