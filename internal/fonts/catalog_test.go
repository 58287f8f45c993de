/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package fonts

import (
	"slices"
	"testing"
)

func TestDefaultCatalogSizes(t *testing.T) {
	c := DefaultCatalog()
	if n := len(c.Popular()); n < 45 || n > 60 {
		t.Fatalf("popular set size = %d", n)
	}
	if n := len(c.Additional()); n < 300 {
		t.Fatalf("additional set size = %d", n)
	}
	for _, f := range c.Additional() {
		if c.IsPopular(f) {
			t.Fatalf("%q listed as both popular and additional", f)
		}
	}
	if !c.IsPopular("Sarabun") || c.IsPopular("Zilla Slab") {
		t.Fatalf("IsPopular misclassifies")
	}
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	c := NewCatalog([]string{"Sarabun", "Kanit"}, []string{"Sarala", "Roboto Slab", "Kanit"})
	got := c.Search("SARA")
	if !slices.Equal(got, []string{"Sarabun", "Sarala"}) {
		t.Fatalf("Search(SARA) = %v", got)
	}
	if got := c.Search("slab"); !slices.Equal(got, []string{"Roboto Slab"}) {
		t.Fatalf("Search(slab) = %v", got)
	}
	if got := c.Search(""); len(got) != 4 {
		t.Fatalf("empty query should list everything once, got %v", got)
	}
	if got := c.Search("zzz"); len(got) != 0 {
		t.Fatalf("no match expected, got %v", got)
	}
}

func TestSearchListsPopularFirst(t *testing.T) {
	c := DefaultCatalog()
	got := c.Search("noto")
	if len(got) == 0 || !c.IsPopular(got[0]) {
		t.Fatalf("popular families should come first: %v", got)
	}
	idx := slices.IndexFunc(got, func(f string) bool { return !c.IsPopular(f) })
	for _, f := range got[idx:] {
		if c.IsPopular(f) {
			t.Fatalf("popular %q after additional entries in %v", f, got)
		}
	}
}
