/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package store persists documents. SQLite is the embedded default, Postgres
// serves shared deployments and Files keeps plain JSON documents with
// backups next to them.
package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"canvasstudio/internal/config"
	"canvasstudio/internal/scene"
)

// ErrNotFound is returned by Load for unknown document ids.
var ErrNotFound = errors.New("document not found")

// ErrInvalidID rejects ids that are empty or not usable as file names.
var ErrInvalidID = errors.New("invalid document id")

// DocumentStore is the persistence port of an editor session.
type DocumentStore interface {
	Save(ctx context.Context, id string, d scene.Document) error
	Load(ctx context.Context, id string) (scene.Document, error)
}

// Info describes a stored document.
type Info struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is a DocumentStore that can also enumerate, delete and close.
type Store interface {
	DocumentStore
	List(ctx context.Context) ([]Info, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]{0,127}$`)

// ValidID reports whether id can name a document.
func ValidID(id string) bool { return idPattern.MatchString(id) }

func checkID(id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

//go:embed document.schema.json
var documentSchema []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(documentSchema))
})

// Encode marshals d in the stored JSON form.
func Encode(d scene.Document) ([]byte, error) {
	if d.Objects == nil {
		d.Objects = []*scene.Object{}
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append(b, '\n'), nil
}

// Decode validates data against the document schema and unmarshals it.
func Decode(data []byte) (scene.Document, error) {
	if err := Validate(data); err != nil {
		return scene.Document{}, err
	}
	var d scene.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return scene.Document{}, fmt.Errorf("parse document: %w", err)
	}
	if d.Objects == nil {
		d.Objects = []*scene.Object{}
	}
	return d, nil
}

// Validate checks data against the embedded document schema.
func Validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile document schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate document: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid document: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Open returns the store configured in cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "sqlite":
		cfg.Driver = "sqlite"
	case "file", "files":
		cfg.Driver = "file"
	case "postgres", "pg":
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	path, err := cfg.ResolvedPath()
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if cfg.Driver == "file" {
		return OpenFiles(path)
	}
	return OpenSQLite(ctx, path)
}
