/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package dragdrop defines what a palette hands to the canvas: a tagged
// payload carried as JSON in a drag transfer, or passed directly on click.
package dragdrop

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"canvasstudio/internal/fonts"
	"canvasstudio/internal/vector"
)

// Transfer keys and the drop effect palettes allow.
const (
	MIMEType   = "application/x-canvasstudio-item"
	TextPlain  = "text/plain"
	EffectCopy = "copy"
)

var (
	// ErrNotActionable means the transfer carries neither payload key.
	ErrNotActionable = errors.New("drag transfer carries no canvas payload")
	// ErrMalformed means a payload key is present but does not decode.
	ErrMalformed = errors.New("malformed drag payload")
)

// Kind discriminates Payload.
type Kind string

const (
	KindShape Kind = "shape"
	KindText  Kind = "text"
	KindIcon  Kind = "icon"
	KindImage Kind = "image"
)

// Payload describes what to create. Which fields are meaningful depends on Kind:
// shape uses ShapeKind; text uses Label, Weight and Size; icon and image use
// URL and Name.
type Payload struct {
	Kind      Kind             `json:"kind"`
	ShapeKind vector.ShapeKind `json:"shapeKind,omitempty"`
	Label     string           `json:"label,omitempty"`
	Weight    fonts.Weight     `json:"weight,omitempty"`
	Size      float64          `json:"size,omitempty"`
	URL       string           `json:"url,omitempty"`
	Name      string           `json:"name,omitempty"`
}

func Shape(kind vector.ShapeKind) Payload { return Payload{Kind: KindShape, ShapeKind: kind} }

func Text(label string, weight fonts.Weight, size float64) Payload {
	return Payload{Kind: KindText, Label: label, Weight: weight, Size: size}
}

func Icon(url, name string) Payload  { return Payload{Kind: KindIcon, URL: url, Name: name} }
func Image(url, name string) Payload { return Payload{Kind: KindImage, URL: url, Name: name} }

func (p Payload) String() string {
	switch p.Kind {
	case KindShape:
		return fmt.Sprintf("shape(%s)", p.ShapeKind)
	case KindText:
		return fmt.Sprintf("text(%q)", p.Label)
	default:
		return fmt.Sprintf("%s(%s)", p.Kind, p.Name)
	}
}

// DataTransfer is the host's drag data store.
type DataTransfer interface {
	SetData(format, data string)
	GetData(format string) string
	SetDropEffect(effect string)
}

// Encode returns the JSON form carried under both transfer keys.
func Encode(p Payload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Start fills dt for a drag beginning at a palette tile.
func Start(dt DataTransfer, p Payload) error {
	s, err := Encode(p)
	if err != nil {
		return fmt.Errorf("encode drag payload: %w", err)
	}
	dt.SetData(MIMEType, s)
	dt.SetData(TextPlain, s)
	dt.SetDropEffect(EffectCopy)
	return nil
}

// Actionable reports whether the canvas should accept a drop of dt.
func Actionable(dt DataTransfer) bool {
	return dt != nil && (dt.GetData(MIMEType) != "" || dt.GetData(TextPlain) != "")
}

//go:embed payload.schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// Decode reads the payload from dt, preferring the private key. It returns
// ErrNotActionable or an error wrapping ErrMalformed; it never panics.
func Decode(dt DataTransfer) (Payload, error) {
	if !Actionable(dt) {
		return Payload{}, ErrNotActionable
	}
	raw := dt.GetData(MIMEType)
	if raw == "" {
		raw = dt.GetData(TextPlain)
	}
	return Parse(raw)
}

// Parse decodes and validates a JSON payload string.
func Parse(raw string) (p Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = Payload{}, fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, ErrNotActionable
	}
	schema, err := compiledSchema()
	if err != nil {
		return Payload{}, fmt.Errorf("payload schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !res.Valid() {
		var msgs []string
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return Payload{}, fmt.Errorf("%w: %s", ErrMalformed, strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p, nil
}

// MapTransfer is an in-memory DataTransfer.
type MapTransfer struct {
	Data   map[string]string
	Effect string
}

func NewMapTransfer() *MapTransfer { return &MapTransfer{Data: map[string]string{}} }

func (m *MapTransfer) SetData(format, data string) {
	if m.Data == nil {
		m.Data = map[string]string{}
	}
	m.Data[format] = data
}

func (m *MapTransfer) GetData(format string) string { return m.Data[format] }

func (m *MapTransfer) SetDropEffect(effect string) { m.Effect = effect }
