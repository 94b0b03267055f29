package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Store is the single writer of the settings file. It is loaded once per
// process and afterwards changed only through Update.
type Store struct {
	path   string
	logger *zap.Logger

	// mu serializes writers; readers go through cur and never block.
	mu  sync.Mutex
	cur atomic.Pointer[Settings]
}

// NewStore returns a store backed by path. Nothing is read until Load.
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file, creating it with Defaults when it does not
// exist. A document missing one of the known keys is completed from Defaults
// and written back. Unparseable content fails with ErrConfigCorrupt and leaves
// the file untouched.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("read settings %s: %w", s.path, err)
		}
		def := Defaults()
		if err := s.write(def); err != nil {
			return Settings{}, err
		}
		s.logger.Info("Created default settings", zap.String("path", s.path))
		s.cur.Store(&def)
		return def.Clone(), nil
	}

	loaded := Defaults()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return Settings{}, fmt.Errorf("%w: %s: %v", ErrConfigCorrupt, s.path, err)
	}
	if missing := missingKeys(data); len(missing) > 0 {
		s.logger.Warn("Settings file lacks known keys, filling defaults",
			zap.String("path", s.path), zap.Strings("keys", missing))
		if err := s.write(loaded); err != nil {
			return Settings{}, err
		}
	}
	s.cur.Store(&loaded)
	s.logger.Debug("Loaded settings",
		zap.Bool(KeyMenuBarVisible, loaded.MenuBarVisible),
		zap.Bool(KeyHideScrollBar, loaded.HideScrollBar))
	return loaded.Clone(), nil
}

// Current returns the in-memory settings without touching the file.
func (s *Store) Current() (Settings, error) {
	p := s.cur.Load()
	if p == nil {
		return Settings{}, ErrNotReady
	}
	return p.Clone(), nil
}

// Update persists next and then makes it current, returning the previous
// value. The in-memory copy is only replaced after the file write succeeded.
func (s *Store) Update(next Settings) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.cur.Load()
	if prev == nil {
		return Settings{}, ErrNotReady
	}
	if err := s.write(next); err != nil {
		return prev.Clone(), err
	}
	stored := next.Clone()
	s.cur.Store(&stored)
	s.logger.Info("Settings updated",
		zap.Bool(KeyMenuBarVisible, stored.MenuBarVisible),
		zap.Bool(KeyHideScrollBar, stored.HideScrollBar))
	return prev.Clone(), nil
}

// write replaces the file atomically: temp file in the same directory,
// fsync, rename.
func (s *Store) write(v Settings) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	b = append(b, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		cleanup()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

func missingKeys(data []byte) []string {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	var out []string
	for _, k := range []string{KeyMenuBarVisible, KeyHideScrollBar} {
		if _, ok := doc[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
