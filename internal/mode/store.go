package mode

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Document is the persisted mode file.
//
//	{
//	  "driver": "/dev/ttyACM0",
//	  "mode": {"name": "normal", "log": "INFO", "pollInterval": 60}
//	}
type Document struct {
	Driver string `json:"driver,omitempty"`
	Mode   Mode   `json:"mode"`
}

// Logger defines the logging interface used by the Store.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store holds the active mode and persists it as a JSON document.
type Store struct {
	path    string
	driver  string
	catalog *Catalog

	mu      sync.RWMutex
	current Mode

	logger Logger
}

// NewStore creates a store whose active mode is the catalog default until
// Load is called.
func NewStore(path, driver string, catalog *Catalog) *Store {
	return &Store{
		path:    path,
		driver:  driver,
		catalog: catalog,
		current: catalog.Default(),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Catalog returns the catalog the store switches within.
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// Load reads the persisted mode. A missing, malformed or unknown document
// selects the default mode and is logged, never returned as an error.
//
// The stored mode name is resolved against the catalog so that log level and
// poll interval always come from configuration.
func (s *Store) Load() Mode {
	m := s.catalog.Default()

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("mode file absent, using default", "path", s.path, "mode", m.Name)
	case err != nil:
		s.logger.Warn("reading mode file failed, using default", "path", s.path, "error", err)
	default:
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			s.logger.Warn("mode file malformed, using default", "path", s.path, "error", err)
			break
		}
		found, ok := s.catalog.Lookup(doc.Mode.Name)
		if !ok {
			s.logger.Warn("mode file names unknown mode, using default", "path", s.path, "mode", doc.Mode.Name)
			break
		}
		m = found
	}

	s.mu.Lock()
	s.current = m
	s.mu.Unlock()
	return m
}

// Current returns the active mode.
func (s *Store) Current() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set switches to the named mode and rewrites the document. The active mode
// only changes if the write succeeds.
func (s *Store) Set(name string) (Mode, error) {
	m, ok := s.catalog.Lookup(name)
	if !ok {
		return Mode{}, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(Document{Driver: s.driver, Mode: m}); err != nil {
		return Mode{}, err
	}
	s.current = m
	s.logger.Info("mode changed", "mode", m.Name, "log", m.Log.String(), "poll_interval", m.PollInterval)
	return m, nil
}

// write replaces the document atomically. Caller holds s.mu.
func (s *Store) write(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding mode document: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("creating mode directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil { //nolint:gosec // configured path
		return fmt.Errorf("writing mode document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing mode document: %w", err)
	}
	return nil
}
