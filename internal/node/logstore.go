package node

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// logTimeLayout renders the bracketed timestamp of a node log line.
const logTimeLayout = "2006-01-02,15:04:05"

// LogStore keeps one append-only event log per node.
//
// Lines have the form:
//
//	[2006-01-02,15:04:05] VALUE_CHANGED, COMMAND_CLASS_SWITCH_BINARY --> 0(Switch)
//
// Files are opened per write so that a removed node leaves no handle behind.
type LogStore struct {
	dir string
	now func() time.Time

	mu     sync.Mutex
	closed bool
}

// NewLogStore creates the log directory if needed and returns a store rooted there.
func NewLogStore(dir string) (*LogStore, error) {
	if dir == "" {
		return nil, ErrLogDirRequired
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating node log directory: %w", err)
	}
	return &LogStore{dir: dir, now: time.Now}, nil
}

// Path returns the log file path of a node.
func (s *LogStore) Path(nodeID uint8) string {
	return filepath.Join(s.dir, fmt.Sprintf("node_%d.log", nodeID))
}

// Append writes one event line to the node's log.
func (s *LogStore) Append(nodeID uint8, eventType, commandClass string, index uint8, label string) error {
	line := fmt.Sprintf("[%s] %s, %s --> %d(%s)\n",
		s.now().Format(logTimeLayout), eventType, commandClass, index, label)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrLogStoreClosed
	}

	f, err := os.OpenFile(s.Path(nodeID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // path built from node id
	if err != nil {
		return fmt.Errorf("opening node %d log: %w", nodeID, err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("writing node %d log: %w", nodeID, err)
	}
	return f.Close()
}

// Remove deletes the node's log. Removing a missing log is not an error.
func (s *LogStore) Remove(nodeID uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.Path(nodeID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing node %d log: %w", nodeID, err)
	}
	return nil
}

// Close stops further writes.
func (s *LogStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
