package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/infrastructure/config"
)

// fakeInflux answers the ping and write endpoints of the v2 API and keeps
// every line-protocol body it receives.
type fakeInflux struct {
	mu        sync.Mutex
	lines     []string
	writeCode int
	unhealthy bool
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ping":
		if f.unhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case "/api/v2/write":
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		for _, l := range strings.Split(strings.TrimSpace(string(body)), "\n") {
			if l != "" {
				f.lines = append(f.lines, l)
			}
		}
		code := f.writeCode
		f.mu.Unlock()
		if code == 0 {
			code = http.StatusNoContent
		}
		if code >= 400 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"code":"invalid","message":"rejected"}`))
			return
		}
		w.WriteHeader(code)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeInflux) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "home",
		Bucket:        "zwave",
		BatchSize:     100,
		FlushInterval: 60,
	}
}

func connectFake(t *testing.T) (*Client, *fakeInflux) {
	t.Helper()
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := Connect(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { c.Close() }) //nolint:errcheck // test cleanup
	c.now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }
	return c, fake
}

func TestConnect(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		_, err := Connect(context.Background(), config.InfluxDBConfig{})
		if !errors.Is(err, ErrDisabled) {
			t.Errorf("Connect() error = %v, want ErrDisabled", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		_, err := Connect(context.Background(), testConfig(url))
		if !errors.Is(err, ErrConnectionFailed) {
			t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
		}
	})

	t.Run("unhealthy", func(t *testing.T) {
		srv := httptest.NewServer(&fakeInflux{unhealthy: true})
		defer srv.Close()
		_, err := Connect(context.Background(), testConfig(srv.URL))
		if !errors.Is(err, ErrConnectionFailed) {
			t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
		}
	})

	t.Run("healthy", func(t *testing.T) {
		c, _ := connectFake(t)
		if !c.IsConnected() {
			t.Error("IsConnected() = false")
		}
		if err := c.HealthCheck(context.Background()); err != nil {
			t.Errorf("HealthCheck() error = %v", err)
		}
	})
}

func TestClientOptions_Defaults(t *testing.T) {
	tests := []struct {
		name      string
		batch     int
		flush     int
		wantBatch uint
		wantFlush uint
	}{
		{name: "configured", batch: 50, flush: 2, wantBatch: 50, wantFlush: 2000},
		{name: "zero", wantBatch: 100, wantFlush: 10000},
		{name: "negative", batch: -1, flush: -5, wantBatch: 100, wantFlush: 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := clientOptions(config.InfluxDBConfig{BatchSize: tt.batch, FlushInterval: tt.flush})
			if opts.BatchSize() != tt.wantBatch || opts.FlushInterval() != tt.wantFlush {
				t.Errorf("batch=%d flush=%d, want %d/%d", opts.BatchSize(), opts.FlushInterval(), tt.wantBatch, tt.wantFlush)
			}
		})
	}
}

func TestWrites(t *testing.T) {
	c, fake := connectFake(t)

	c.RecordLiveness(context.Background(), 3, 1)
	c.WriteNodeState(0xC0FFEE01, 7, "Binary Switch", false, time.Date(2026, 10, 17, 8, 59, 30, 0, time.UTC))
	c.WriteCommand("setValue", 202)
	c.Flush()

	lines := fake.received()
	if len(lines) != 3 {
		t.Fatalf("received %d lines, want 3: %v", len(lines), lines)
	}

	wants := []string{
		"zwave_liveness alive=3i,dead=1i,total=4i",
		`zwave_node,home_id=c0ffee01,node_id=7,type=Binary\ Switch dead=false,last_sync_age_s=30`,
		"zwave_command,class=2xx,command=setValue status=202i",
	}
	for i, want := range wants {
		if !strings.HasPrefix(lines[i], want) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], want)
		}
	}
}

func TestWriteNodeState_NeverSynced(t *testing.T) {
	c, fake := connectFake(t)
	c.WriteNodeState(1, 9, "", true, time.Time{})
	c.Flush()

	lines := fake.received()
	if len(lines) != 1 || strings.Contains(lines[0], "last_sync_age_s") {
		t.Errorf("lines = %v, want one point without an age", lines)
	}
}

func TestWriteErrorsReachCallback(t *testing.T) {
	c, fake := connectFake(t)
	fake.mu.Lock()
	fake.writeCode = http.StatusBadRequest
	fake.mu.Unlock()

	errCh := make(chan error, 1)
	c.SetOnError(func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	c.WriteCommand("help", 200)
	c.Flush()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrWriteFailed) {
			t.Errorf("callback error = %v, want ErrWriteFailed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("write error not delivered")
	}
}

func TestClose(t *testing.T) {
	c, fake := connectFake(t)
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	c.RecordLiveness(context.Background(), 1, 1)
	c.Flush()
	if n := len(fake.received()); n != 0 {
		t.Errorf("received %d lines after Close", n)
	}

	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
}
