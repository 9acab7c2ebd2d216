package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/phuslu/log"
)

// Manager owns config.json. It keeps two layers: the file as written on
// disk, and the effective config (file plus TICKERVIEW_* environment).
// Only the file layer is ever persisted.
type Manager struct {
	path     string
	debounce time.Duration

	mu        sync.RWMutex
	file      Config
	effective Config
}

// Change is reported by Watch when a reload alters the effective config.
// Fields holds the json names of the fields that differ.
type Change struct {
	Old, New Config
	Fields   []string
}

// Has reports whether the named json field changed.
func (c Change) Has(field string) bool {
	for _, f := range c.Fields {
		if f == field {
			return true
		}
	}
	return false
}

type ManagerOption func(*Manager)

// WithConfigPath overrides the default file location. Empty keeps the default.
func WithConfigPath(path string) ManagerOption {
	return func(m *Manager) {
		if path != "" {
			m.path = path
		}
	}
}

// WithDebounce sets how long to wait after the last file event before reloading.
func WithDebounce(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.debounce = d
		}
	}
}

// NewManager loads config.json, creating it from Defaults when missing.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	m := &Manager{debounce: 300 * time.Millisecond}
	for _, opt := range opts {
		opt(m)
	}
	if m.path == "" {
		path, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		m.path = path
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	file, err := readConfigFile(m.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		file = Defaults()
		if err := writeConfigFile(m.path, file); err != nil {
			return nil, fmt.Errorf("write initial config: %w", err)
		}
		log.Info().Str("path", m.path).Msg("created config file")
	case err != nil:
		return nil, fmt.Errorf("load config: %w", err)
	}

	effective := withEnv(file)
	if err := effective.Validate(); err != nil {
		return nil, err
	}
	m.file, m.effective = file, effective
	return m, nil
}

// Get returns the effective config.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.effective
}

func (m *Manager) Path() string {
	return m.path
}

// Update applies mutate to the file layer and persists it. Environment
// overrides stay in effect but are never written to disk.
func (m *Manager) Update(mutate func(*Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	file := m.file
	mutate(&file)
	effective := withEnv(file)
	if err := effective.Validate(); err != nil {
		return err
	}
	if file == m.file {
		return nil
	}
	if err := writeConfigFile(m.path, file); err != nil {
		return err
	}
	m.file, m.effective = file, effective
	return nil
}

// Watch reloads config.json when it changes on disk and calls onChange for
// every reload that alters the effective config. Writes made through Update
// are already applied and do not call onChange. The watcher stops when ctx
// is done.
func (m *Manager) Watch(ctx context.Context, onChange func(Change)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}
	go m.watchLoop(ctx, watcher, onChange)
	return nil
}

// WatchWebhook calls onURL with the new endpoint whenever a reload changes
// webhook_url.
func (m *Manager) WatchWebhook(ctx context.Context, onURL func(url string)) error {
	return m.Watch(ctx, func(c Change) {
		if c.Has("webhook_url") {
			onURL(c.New.WebhookURL)
		}
	})
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func(Change)) {
	defer watcher.Close()

	timer := time.NewTimer(m.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != filepath.Clean(m.path) ||
				!evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
				continue
			}
			timer.Reset(m.debounce)
		case <-timer.C:
			if change, ok := m.reload(); ok && onChange != nil {
				onChange(change)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("config watcher error")
		case <-ctx.Done():
			return
		}
	}
}

// reload re-reads the file. A bad file is logged and the previous config
// stays in effect.
func (m *Manager) reload() (Change, bool) {
	file, err := readConfigFile(m.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Error().Err(err).Str("path", m.path).Msg("config reload failed")
		}
		return Change{}, false
	}
	effective := withEnv(file)
	if err := effective.Validate(); err != nil {
		log.Error().Err(err).Str("path", m.path).Msg("config reload rejected")
		return Change{}, false
	}

	m.mu.Lock()
	old := m.effective
	m.file, m.effective = file, effective
	m.mu.Unlock()

	fields := ChangedFields(old, effective)
	if len(fields) == 0 {
		return Change{}, false
	}
	log.Info().Str("path", m.path).Str("fields", strings.Join(fields, ",")).Msg("config reloaded")
	return Change{Old: old, New: effective, Fields: fields}, true
}

// ChangedFields lists the json names of fields that differ between a and b.
func ChangedFields(a, b Config) []string {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	t := va.Type()
	var fields []string
	for i := 0; i < t.NumField(); i++ {
		if va.Field(i).Interface() == vb.Field(i).Interface() {
			continue
		}
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		fields = append(fields, name)
	}
	return fields
}

func withEnv(file Config) Config {
	file.LoadFromEnv()
	return file
}

// readConfigFile decodes the file over Defaults so missing keys keep their
// built-in values.
func readConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Defaults()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// writeConfigFile replaces the file atomically via a sibling temp file.
func writeConfigFile(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// DefaultConfigPath is config.json under the user config directory.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "tickerview", "config.json"), nil
}
