/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"errors"
	"testing"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#FF0000")
	if err != nil || c != (Color{255, 0, 0, 255}) {
		t.Fatalf("#FF0000 = %+v, %v", c, err)
	}
	c, err = ParseHex("#0f8")
	if err != nil || c != (Color{0, 255, 136, 255}) {
		t.Fatalf("#0f8 = %+v, %v", c, err)
	}
	c, err = ParseHex("11223380")
	if err != nil || c.A != 0x80 || c.Hex() != "#11223380" {
		t.Fatalf("8-digit = %+v (%s), %v", c, c.Hex(), err)
	}
	for _, bad := range []string{"", "#12", "#GGHHII", "red"} {
		if _, err := ParseHex(bad); !errors.Is(err, ErrBadColor) {
			t.Fatalf("ParseHex(%q) err = %v", bad, err)
		}
	}
}

func TestColorTextRoundTrip(t *testing.T) {
	var c Color
	if err := c.UnmarshalText([]byte("#ff8800")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	b, _ := c.MarshalText()
	if string(b) != "#FF8800" {
		t.Fatalf("MarshalText = %s", b)
	}
	r, _, _, a := c.RGBA()
	if r != 0xffff || a != 0xffff {
		t.Fatalf("RGBA = %x %x", r, a)
	}
}
