/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	applog "canvasstudio/internal/log"
	"canvasstudio/internal/scene"
)

const (
	DocumentExt    = ".json"
	BackupsDirName = "backups"
	// MaxBackups is how many backups are kept per document.
	MaxBackups = 10
)

// Files keeps each document as <root>/<id>.json. Every save first copies the
// current file into backups/ and then replaces it through a temp file.
type Files struct {
	root string
	log  *slog.Logger
	mu   sync.Mutex
}

// OpenFiles uses root as the document directory, creating it if needed.
func OpenFiles(root string) (*Files, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("document directory is required")
	}
	if err := os.MkdirAll(filepath.Join(root, BackupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	return &Files{root: root, log: applog.WithComponent("store").With(slog.String("driver", "file"))}, nil
}

// Root is the document directory.
func (f *Files) Root() string { return f.root }

func (f *Files) path(id string) string { return filepath.Join(f.root, id+DocumentExt) }

// Save writes the document transactionally with a timestamped backup of the
// previous version.
func (f *Files) Save(_ context.Context, id string, d scene.Document) error {
	if err := checkID(id); err != nil {
		return err
	}
	data, err := Encode(d)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.path(id)
	if _, statErr := os.Stat(target); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000000000")
		bpath := filepath.Join(f.root, BackupsDirName, fmt.Sprintf("%s%s.%s.bak", id, DocumentExt, stamp))
		if cerr := copyFile(target, bpath); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
		f.pruneBackups(id)
	}

	temp := filepath.Join(f.root, fmt.Sprintf(".%s.tmp-%d-%d", id, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp document: %w", werr)
	}
	if rerr := os.Rename(temp, target); rerr != nil {
		// Windows cannot rename over an existing file
		_ = os.Remove(target)
		if rerr = os.Rename(temp, target); rerr != nil {
			_ = os.Remove(temp)
			return fmt.Errorf("replace document: %w", rerr)
		}
	}
	return nil
}

// Load reads the document. A missing or corrupt file falls back to the latest
// backup; with no usable backup a missing file yields ErrNotFound.
func (f *Files) Load(_ context.Context, id string) (scene.Document, error) {
	if err := checkID(id); err != nil {
		return scene.Document{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path(id))
	if err == nil {
		d, derr := Decode(b)
		if derr == nil {
			return d, nil
		}
		err = derr
	}
	d, berr := f.latestBackup(id)
	if berr == nil {
		f.log.Warn("document unreadable, restored latest backup", slog.String("id", id), slog.Any("err", err))
		return d, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return scene.Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return scene.Document{}, fmt.Errorf("open document: %w; backup attempt: %v", err, berr)
}

func (f *Files) backups(id string) ([]string, error) {
	bdir := filepath.Join(f.root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := id + DocumentExt + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	// timestamp in name yields lexicographic order
	sort.Strings(out)
	return out, nil
}

func (f *Files) latestBackup(id string) (scene.Document, error) {
	cands, err := f.backups(id)
	if err != nil {
		return scene.Document{}, err
	}
	for i := len(cands) - 1; i >= 0; i-- {
		b, err := os.ReadFile(cands[i])
		if err != nil {
			continue
		}
		if d, err := Decode(b); err == nil {
			return d, nil
		}
	}
	return scene.Document{}, errors.New("no usable backups found")
}

func (f *Files) pruneBackups(id string) {
	cands, err := f.backups(id)
	if err != nil || len(cands) <= MaxBackups {
		return
	}
	for _, p := range cands[:len(cands)-MaxBackups] {
		if err := os.Remove(p); err != nil {
			f.log.Debug("remove old backup failed", slog.String("path", p), slog.Any("err", err))
		}
	}
}

// List returns stored documents, most recently modified first.
func (f *Files) List(_ context.Context) ([]Info, error) {
	ents, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("read document dir: %w", err)
	}
	var out []Info
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, DocumentExt) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{ID: strings.TrimSuffix(name, DocumentExt), UpdatedAt: fi.ModTime().UTC()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Delete removes the document file; its backups are kept.
func (f *Files) Delete(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Close is a no-op.
func (f *Files) Close() error { return nil }

func writeFileSync(path string, data []byte) (err error) {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := fh.Write(data); err != nil {
		return err
	}
	return fh.Sync()
}

func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = sf.Close() }()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
