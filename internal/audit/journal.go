package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/mode"
)

// Bucket file names.
const (
	InfoFile  = "info.log"
	ErrorFile = "error.log"
)

// chanSize is the buffer of the asynchronous repository writer.
// Entries beyond this are dropped rather than stalling the socket loop.
const chanSize = 256

const lineTimeLayout = "2006-01-02,15:04:05"

// Logger defines the logging interface used by the Journal.
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

// Config configures a Journal.
type Config struct {
	// Dir holds info.log and error.log. Required.
	Dir string

	// Level selects which buckets receive entries.
	Level mode.Level

	// Repository, when set, receives every entry asynchronously.
	Repository Repository
}

// Journal records every dispatched command.
//
// Entries are appended to info.log (2xx) or error.log (4xx/5xx) according to
// the verbosity level: DEBUG writes both, INFO only successes, NOTICE only
// errors. Independently of the level, every entry is queued for the
// repository and written by Run.
type Journal struct {
	dir  string
	repo Repository
	ch   chan *Entry
	now  func() time.Time

	mu    sync.Mutex
	level mode.Level

	logger Logger
}

// NewJournal creates the bucket directory and returns a Journal.
func NewJournal(cfg Config) (*Journal, error) {
	if cfg.Dir == "" {
		return nil, ErrDirRequired
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	j := &Journal{
		dir:    cfg.Dir,
		repo:   cfg.Repository,
		now:    time.Now,
		level:  cfg.Level,
		logger: noopLogger{},
	}
	if j.repo != nil {
		j.ch = make(chan *Entry, chanSize)
	}
	return j, nil
}

// SetLogger sets the logger for the journal.
func (j *Journal) SetLogger(logger Logger) {
	j.logger = logger
}

// Level returns the current verbosity.
func (j *Journal) Level() mode.Level {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.level
}

// SetLevel changes the verbosity for subsequent entries.
func (j *Journal) SetLevel(level mode.Level) {
	j.mu.Lock()
	j.level = level
	j.mu.Unlock()
}

// Path returns the full path of a bucket file.
func (j *Journal) Path(bucket string) string {
	return filepath.Join(j.dir, bucket)
}

// Bucket returns the file an entry with status goes to at level, or "" when
// the level suppresses it.
func Bucket(level mode.Level, status int) string {
	success := status >= 200 && status < 300
	switch level {
	case mode.LevelDebug:
		if success {
			return InfoFile
		}
		return ErrorFile
	case mode.LevelInfo:
		if success {
			return InfoFile
		}
	case mode.LevelNotice:
		if !success {
			return ErrorFile
		}
	}
	return ""
}

// Record journals one entry. File errors are logged, never returned; the
// journal must not change the outcome of the command it records.
func (j *Journal) Record(e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}

	j.mu.Lock()
	bucket := Bucket(j.level, e.Status)
	if bucket != "" {
		if err := j.appendLine(bucket, e); err != nil {
			j.logger.Warn("audit file write failed", "bucket", bucket, "error", err)
		}
	}
	j.mu.Unlock()

	j.enqueue(&e)
}

// appendLine writes one bucket line. Caller holds j.mu.
func (j *Journal) appendLine(bucket string, e Entry) error {
	line := fmt.Sprintf("[%s] %d, %s, %s, %s\n",
		e.CreatedAt.Local().Format(lineTimeLayout), e.Status, e.Message, e.Command, strings.Join(e.Args, ","))

	f, err := os.OpenFile(j.Path(bucket), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // fixed bucket names
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close() //nolint:errcheck // write error takes precedence
		return err
	}
	return f.Close()
}

// enqueue hands an entry to the repository writer without blocking.
func (j *Journal) enqueue(e *Entry) {
	if j.ch == nil {
		return
	}
	select {
	case j.ch <- e:
	default:
		j.logger.Warn("audit channel full, dropping entry", "command", e.Command, "status", e.Status)
	}
}

// Run writes queued entries to the repository serially until ctx is
// cancelled, then drains what is left. It returns immediately when no
// repository is configured.
func (j *Journal) Run(ctx context.Context) error {
	if j.ch == nil {
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case e := <-j.ch:
			j.store(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-j.ch:
					j.store(e)
				default:
					return nil
				}
			}
		}
	}
}

func (j *Journal) store(e *Entry) {
	// The caller's context may already be cancelled during shutdown drain.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := j.repo.Create(ctx, e); err != nil {
		j.logger.Error("audit repository write failed", "command", e.Command, "error", err)
	}
}
