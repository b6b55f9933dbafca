package node

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewLogStore_RequiresDir(t *testing.T) {
	if _, err := NewLogStore(""); !errors.Is(err, ErrLogDirRequired) {
		t.Errorf("NewLogStore(\"\") error = %v, want ErrLogDirRequired", err)
	}
}

func TestLogStore_AppendFormat(t *testing.T) {
	store, err := NewLogStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogStore() error = %v", err)
	}
	store.now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.Local) }

	if err := store.Append(5, "VALUE_CHANGED", "COMMAND_CLASS_SWITCH_BINARY", 0, "Switch"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(5, "VALUE_REFRESHED", "COMMAND_CLASS_SWITCH_BINARY", 0, "Switch"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	data, err := os.ReadFile(store.Path(5))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	want := "[2026-02-03,04:05:06] VALUE_CHANGED, COMMAND_CLASS_SWITCH_BINARY --> 0(Switch)"
	if lines[0] != want {
		t.Errorf("line = %q, want %q", lines[0], want)
	}
}

func TestLogStore_RemoveIdempotent(t *testing.T) {
	store, err := NewLogStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogStore() error = %v", err)
	}
	if err := store.Append(9, "NODE_ADDED", "COMMAND_CLASS_NO_OPERATION", 0, ""); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := store.Remove(9); err != nil {
			t.Errorf("Remove() call %d error = %v", i+1, err)
		}
	}
}

func TestLogStore_Closed(t *testing.T) {
	store, err := NewLogStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogStore() error = %v", err)
	}
	store.Close()
	if err := store.Append(1, "X", "Y", 0, ""); !errors.Is(err, ErrLogStoreClosed) {
		t.Errorf("Append() after Close error = %v, want ErrLogStoreClosed", err)
	}
}
