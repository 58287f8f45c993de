/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration of the editor.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Fonts         FontsConfig   `yaml:"fonts"`
	Icons         IconsConfig   `yaml:"icons"`
	Storage       StorageConfig `yaml:"storage"`
	Server        ServerConfig  `yaml:"server"`
	Logging       LoggingConfig `yaml:"logging"`
}

type EditorConfig struct {
	DefaultWidth     int  `yaml:"default_width"`
	DefaultHeight    int  `yaml:"default_height"`
	RenderCoalesceMs int  `yaml:"render_coalesce_ms"`
	FocusDelete      bool `yaml:"focus_delete"`
}

type FontsConfig struct {
	StylesheetURL  string   `yaml:"stylesheet_url"`
	TimeoutMs      int      `yaml:"timeout_ms"`
	PreloadPopular bool     `yaml:"preload_popular"`
	Subsets        []string `yaml:"subsets"`
}

type IconsConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	DebounceMs int    `yaml:"debounce_ms"`
	Limit      int    `yaml:"limit"`
	Color      string `yaml:"color"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "postgres" | "file"
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor:        EditorConfig{DefaultWidth: 800, DefaultHeight: 600, RenderCoalesceMs: 16, FocusDelete: true},
		Fonts: FontsConfig{
			StylesheetURL:  "https://fonts.googleapis.com/css2",
			TimeoutMs:      15000,
			PreloadPopular: true,
			Subsets:        []string{"thai", "latin"},
		},
		Icons:   IconsConfig{BaseURL: "http://localhost:8081", TimeoutMs: 10000, DebounceMs: 300, Limit: 48, Color: "#000000"},
		Storage: StorageConfig{Driver: "sqlite", Path: "", DSN: ""},
		Server:  ServerConfig{Addr: "127.0.0.1:8090"},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvFontsURL       = "CVS_FONTS_URL"
	EnvFontsTimeoutMs = "CVS_FONTS_TIMEOUT_MS"
	EnvFontsPreload   = "CVS_FONTS_PRELOAD"
	EnvIconsURL       = "CVS_ICONS_URL"
	EnvIconsTimeoutMs = "CVS_ICONS_TIMEOUT_MS"
	EnvStorageDriver  = "CVS_STORAGE_DRIVER"
	EnvStoragePath    = "CVS_STORAGE_PATH"
	EnvStorageDSN     = "CVS_STORAGE_DSN"
	EnvServerAddr     = "CVS_SERVER_ADDR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "CVS_LOG_LEVEL"
	EnvLogFormat = "CVS_LOG_FORMAT"
	EnvLogSource = "CVS_LOG_SOURCE"
	EnvLogFile   = "CVS_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "CanvasStudio"
	keyringToken   = "icons_token"
)

// TokenStore abstracts the keychain so tests can swap it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = osKeyring{}

// SetTokenStore replaces the keychain backend and returns the previous one.
func SetTokenStore(ts TokenStore) TokenStore {
	prev := tokenStore
	tokenStore = ts
	return prev
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) {
	v, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (osKeyring) Set(service, key, value string) error { return keyring.Set(service, key, value) }

func (osKeyring) Delete(service, key string) error {
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "CanvasStudio")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "CanvasStudio")
	default: // linux and others
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("cannot resolve config directory")
		}
		base = filepath.Join(home, ".config", "canvasstudio")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the icon service token from keyring (returned separately).
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// ClearToken removes the icon service token from the keychain.
func ClearToken() error { return tokenStore.Delete(keyringService, keyringToken) }

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// editor
	if src.Editor.DefaultWidth > 0 {
		dst.Editor.DefaultWidth = src.Editor.DefaultWidth
	}
	if src.Editor.DefaultHeight > 0 {
		dst.Editor.DefaultHeight = src.Editor.DefaultHeight
	}
	if src.Editor.RenderCoalesceMs > 0 {
		dst.Editor.RenderCoalesceMs = src.Editor.RenderCoalesceMs
	}
	dst.Editor.FocusDelete = src.Editor.FocusDelete
	// fonts
	if s := strings.TrimSpace(src.Fonts.StylesheetURL); s != "" {
		dst.Fonts.StylesheetURL = s
	}
	if src.Fonts.TimeoutMs > 0 {
		dst.Fonts.TimeoutMs = src.Fonts.TimeoutMs
	}
	dst.Fonts.PreloadPopular = src.Fonts.PreloadPopular
	if len(src.Fonts.Subsets) > 0 {
		dst.Fonts.Subsets = append([]string(nil), src.Fonts.Subsets...)
	}
	// icons
	if s := strings.TrimSpace(src.Icons.BaseURL); s != "" {
		dst.Icons.BaseURL = s
	}
	if src.Icons.TimeoutMs > 0 {
		dst.Icons.TimeoutMs = src.Icons.TimeoutMs
	}
	if src.Icons.DebounceMs > 0 {
		dst.Icons.DebounceMs = src.Icons.DebounceMs
	}
	if src.Icons.Limit > 0 {
		dst.Icons.Limit = src.Icons.Limit
	}
	if s := strings.TrimSpace(src.Icons.Color); s != "" {
		dst.Icons.Color = s
	}
	// storage
	if s := strings.TrimSpace(src.Storage.Driver); s != "" {
		dst.Storage.Driver = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Storage.Path); s != "" {
		dst.Storage.Path = s
	}
	if s := strings.TrimSpace(src.Storage.DSN); s != "" {
		dst.Storage.DSN = s
	}
	if s := strings.TrimSpace(src.Server.Addr); s != "" {
		dst.Server.Addr = s
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvFontsURL)); v != "" {
		cfg.Fonts.StylesheetURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFontsTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Fonts.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvFontsPreload)); v != "" {
		cfg.Fonts.PreloadPopular = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvIconsURL)); v != "" {
		cfg.Icons.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvIconsTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Icons.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDriver)); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoragePath)); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDSN)); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"fonts.stylesheet_url":  EnvFontsURL,
	"fonts.timeout_ms":      EnvFontsTimeoutMs,
	"fonts.preload_popular": EnvFontsPreload,
	"icons.base_url":        EnvIconsURL,
	"icons.timeout_ms":      EnvIconsTimeoutMs,
	"storage.driver":        EnvStorageDriver,
	"storage.path":          EnvStoragePath,
	"storage.dsn":           EnvStorageDSN,
	"server.addr":           EnvServerAddr,
	"logging.level":         EnvLogLevel,
	"logging.format":        EnvLogFormat,
	"logging.source":        EnvLogSource,
	"logging.file":          EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

func millis(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}

// CoalesceWindow is the render coalescing interval.
func (e EditorConfig) CoalesceWindow() time.Duration {
	return millis(e.RenderCoalesceMs, Defaults().Editor.RenderCoalesceMs)
}

// Timeout bounds a single font load.
func (f FontsConfig) Timeout() time.Duration { return millis(f.TimeoutMs, Defaults().Fonts.TimeoutMs) }

// Timeout bounds a single icon service request.
func (i IconsConfig) Timeout() time.Duration { return millis(i.TimeoutMs, Defaults().Icons.TimeoutMs) }

// Debounce is the quiet period after the last keystroke before a search is issued.
func (i IconsConfig) Debounce() time.Duration {
	return millis(i.DebounceMs, Defaults().Icons.DebounceMs)
}

// ResolvedPath returns the storage path, defaulting into the config directory.
func (s StorageConfig) ResolvedPath() (string, error) {
	if strings.TrimSpace(s.Path) != "" {
		return s.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if s.Driver == "file" {
		return filepath.Join(dir, "documents"), nil
	}
	return filepath.Join(dir, "canvasstudio.db"), nil
}
