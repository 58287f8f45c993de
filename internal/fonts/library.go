/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package fonts

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Weight is a CSS font weight (100..900).
type Weight int

const (
	Thin       Weight = 100
	ExtraLight Weight = 200
	Light      Weight = 300
	Regular    Weight = 400
	Medium     Weight = 500
	SemiBold   Weight = 600
	Bold       Weight = 700
	ExtraBold  Weight = 800
	Black      Weight = 900
)

// Weights is the nine-step scale offered by the panel, Thin..Black.
var Weights = []Weight{Thin, ExtraLight, Light, Regular, Medium, SemiBold, Bold, ExtraBold, Black}

var weightNames = map[Weight]string{
	Thin: "Thin", ExtraLight: "Extra Light", Light: "Light", Regular: "Regular",
	Medium: "Medium", SemiBold: "Semi Bold", Bold: "Bold", ExtraBold: "Extra Bold", Black: "Black",
}

func (w Weight) String() string {
	if n, ok := weightNames[w]; ok {
		return n
	}
	return fmt.Sprintf("Weight(%d)", int(w))
}

// Snap rounds w to the nearest step of the scale and clamps it into 100..900.
func (w Weight) Snap() Weight {
	s := int(math.Round(float64(w)/100)) * 100
	return Weight(min(max(s, int(Thin)), int(Black)))
}

// ParseWeight accepts "bold", "normal", a scale name ("Semi Bold") or a number.
func ParseWeight(s string) (Weight, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "normal":
		return Regular, nil
	case "bold":
		return Bold, nil
	}
	for w, n := range weightNames {
		if strings.EqualFold(n, v) || strings.EqualFold(strings.ReplaceAll(n, " ", ""), v) {
			return w, nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
		return Weight(n).Snap(), nil
	}
	return 0, fmt.Errorf("unknown font weight %q", s)
}

// UnmarshalJSON accepts a number or any form ParseWeight understands.
// Zero or negative numbers leave the weight unset.
func (w *Weight) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		if n <= 0 {
			*w = 0
			return nil
		}
		*w = Weight(n).Snap()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseWeight(s)
	if err != nil {
		return err
	}
	*w = v
	return nil
}

// Spec describes a requested font.
type Spec struct {
	Family string
	Size   float64 // pixels
	Weight Weight
	Italic bool
}

// Library stores parsed OpenType fonts mapped by family/weight/italic. Several
// files may share a key (one per script subset); the first registered wins.
type Library struct {
	mu    sync.RWMutex
	fonts map[fontKey][]*opentype.Font
	// DPI used for faces; 72 makes Size map 1:1 to pixels.
	DPI float64
}

type fontKey struct {
	family string
	weight Weight
	italic bool
}

func NewLibrary() *Library { return &Library{fonts: make(map[fontKey][]*opentype.Font), DPI: 72} }

// Register parses font data and stores it under family/weight/italic.
func (l *Library) Register(family string, weight Weight, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s %d: %w", family, weight, err)
	}
	k := fontKey{family: family, weight: weight.Snap(), italic: italic}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fonts == nil {
		l.fonts = make(map[fontKey][]*opentype.Font)
	}
	l.fonts[k] = append(l.fonts[k], f)
	return nil
}

// LoadFile loads a font file into the library under the given family/weight/italic.
func (l *Library) LoadFile(family string, weight Weight, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return l.Register(family, weight, italic, data)
}

// Has reports whether any face of family is registered.
func (l *Library) Has(family string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for k := range l.fonts {
		if k.family == family {
			return true
		}
	}
	return false
}

// Families lists registered families in sorted order.
func (l *Library) Families() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []string
	for k := range l.fonts {
		if !slices.Contains(out, k.family) {
			out = append(out, k.family)
		}
	}
	slices.Sort(out)
	return out
}

// find returns the closest registered weight of the family, preferring the
// requested slant and, on equal distance, the lighter weight.
func (l *Library) find(spec Spec) *opentype.Font {
	l.mu.RLock()
	defer l.mu.RUnlock()
	want := spec.Weight
	if want == 0 {
		want = Regular
	}
	var (
		best     *opentype.Font
		bestCost = math.MaxInt
	)
	for k, fs := range l.fonts {
		if k.family != spec.Family || len(fs) == 0 {
			continue
		}
		cost := abs(int(k.weight) - int(want))
		if k.italic != spec.Italic {
			cost += 1000
		}
		if cost < bestCost || (cost == bestCost && best != nil && k.weight < want) {
			best, bestCost = fs[0], cost
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Face returns a new face for spec. When the family is not registered it
// returns basicfont.Face7x13 and fallback=true. Faces are not safe for
// concurrent use; callers keep one per goroutine.
func (l *Library) Face(spec Spec) (face font.Face, fallback bool) {
	size := spec.Size
	if size <= 0 {
		size = 12
	}
	dpi := l.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if f := l.find(spec); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: dpi, Hinting: font.HintingFull})
		if err == nil {
			return face, false
		}
	}
	return basicfont.Face7x13, true
}

// basicHeight is the line height of the fallback face.
const basicHeight = 13

// Measure returns the width and height of text set in spec, one line per "\n".
func (l *Library) Measure(text string, spec Spec) (w, h float64) {
	face, fallback := l.Face(spec)
	scale := 1.0
	if fallback && spec.Size > 0 {
		scale = spec.Size / basicHeight
	}
	lines := strings.Split(text, "\n")
	var maxW fixed.Int26_6
	for _, ln := range lines {
		if adv := font.MeasureString(face, ln); adv > maxW {
			maxW = adv
		}
	}
	lh := float64(face.Metrics().Height.Ceil())
	if !fallback {
		_ = face.Close()
	}
	return float64(maxW.Ceil()) * scale, lh * float64(len(lines)) * scale
}
