/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		fontsJSON = false
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := run(t, "version")
	if !strings.Contains(out, "Canvas Studio") {
		t.Fatalf("output = %q", out)
	}
}

func TestFontsSearchMarksPopular(t *testing.T) {
	out := run(t, "fonts", "search", "sarabun")
	if !strings.Contains(out, "* Sarabun") {
		t.Fatalf("output = %q", out)
	}
}

func TestFontsSearchJSON(t *testing.T) {
	out := run(t, "fonts", "search", "--json", "zilla")
	var rows []struct {
		Family  string `json:"family"`
		Popular bool   `json:"popular"`
	}
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(rows) != 1 || rows[0].Family != "Zilla Slab" || rows[0].Popular {
		t.Fatalf("rows = %+v", rows)
	}
}
