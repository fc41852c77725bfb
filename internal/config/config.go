// Package config persists the shell settings as a flat JSON document.
//
// Loading never fails: missing, unreadable or malformed files yield the
// defaults, and saving is best effort. Keys this package does not know are
// kept and written back unchanged.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

const (
	KeyBackgroundImage   = "backgroundImage"
	KeyBackgroundOpacity = "backgroundOpacity"

	DefaultOpacity = 0.3
	MinOpacity     = 0.1
	MaxOpacity     = 1.0

	// EnvPath overrides the config file location.
	EnvPath = "WZDESK_CONFIG"
)

type Config struct {
	BackgroundImage   string
	BackgroundOpacity float64
}

func Default() Config {
	return Config{BackgroundImage: "", BackgroundOpacity: DefaultOpacity}
}

// IOError describes a swallowed read or write failure. It is only logged.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("config %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

type Store struct {
	path string
	log  zerolog.Logger

	// saveMu orders file writes so the last snapshot taken is the one kept.
	saveMu sync.Mutex

	mu    sync.Mutex
	cfg   Config
	extra map[string]json.RawMessage
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New returns a Store holding the defaults. Call Load to read path.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:  path,
		log:   zerolog.Nop(),
		cfg:   Default(),
		extra: map[string]json.RawMessage{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the file and returns the defaults merged with every valid
// persisted value. A background path that no longer exists is reset.
func (s *Store) Load() Config {
	cfg, extra := Default(), map[string]json.RawMessage{}
	if err := s.read(&cfg, extra); err != nil {
		s.log.Debug().Err(err).Msg("config not loaded, using defaults")
	}
	s.mu.Lock()
	s.cfg, s.extra = cfg, extra
	s.mu.Unlock()
	return cfg
}

func (s *Store) read(cfg *Config, extra map[string]json.RawMessage) error {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &IOError{Op: "read", Path: s.path, Err: err}
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(b, &doc); err != nil {
		return &IOError{Op: "parse", Path: s.path, Err: err}
	}
	for k, v := range doc {
		switch k {
		case KeyBackgroundImage:
			var path string
			if json.Unmarshal(v, &path) != nil {
				s.log.Debug().Str("key", k).Msg("config value ignored")
				continue
			}
			if path != "" {
				if _, err := os.Stat(path); err != nil {
					s.log.Debug().Str("path", path).Msg("background image missing, reset")
					continue
				}
			}
			cfg.BackgroundImage = path
		case KeyBackgroundOpacity:
			var op float64
			if json.Unmarshal(v, &op) != nil || op < MinOpacity || op > MaxOpacity {
				s.log.Debug().Str("key", k).Msg("config value ignored")
				continue
			}
			cfg.BackgroundOpacity = op
		default:
			extra[k] = v
		}
	}
	return nil
}

// Save writes the current settings. Failures are logged, never returned.
func (s *Store) Save() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.Lock()
	doc := make(map[string]any, len(s.extra)+2)
	for k, v := range s.extra {
		doc[k] = v
	}
	doc[KeyBackgroundImage] = s.cfg.BackgroundImage
	doc[KeyBackgroundOpacity] = s.cfg.BackgroundOpacity
	s.mu.Unlock()

	if err := s.write(doc); err != nil {
		s.log.Debug().Err(err).Msg("config not saved")
	}
}

// write replaces the file through a temp file in the same directory so a
// watcher never reads a half written document.
func (s *Store) write(doc map[string]any) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &IOError{Op: "encode", Path: s.path, Err: err}
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: dir, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	_, err = tmp.Write(append(b, '\n'))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), s.path)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

func (s *Store) Get() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Set replaces the settings in memory; call Save to persist them.
// Opacity is clamped to [MinOpacity, MaxOpacity].
func (s *Store) Set(cfg Config) {
	cfg.BackgroundOpacity = ClampOpacity(cfg.BackgroundOpacity)
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// Update applies fn to the settings and saves them. fn runs under the store
// lock and must not call back into the Store.
func (s *Store) Update(fn func(*Config)) Config {
	s.mu.Lock()
	cfg := s.cfg
	fn(&cfg)
	cfg.BackgroundOpacity = ClampOpacity(cfg.BackgroundOpacity)
	s.cfg = cfg
	s.mu.Unlock()
	s.Save()
	return cfg
}

// Extra returns a persisted key this package does not interpret.
func (s *Store) Extra(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.extra[key]
	return v, ok
}

func ClampOpacity(v float64) float64 {
	return max(MinOpacity, min(MaxOpacity, v))
}

// DefaultPath returns $WZDESK_CONFIG, else <user config dir>/<app>/config.json.
func DefaultPath(app string) string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, app, "config.json")
}
