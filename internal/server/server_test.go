package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-zwave/internal/command"
	"github.com/nerrad567/gray-logic-zwave/internal/mode"
	"github.com/nerrad567/gray-logic-zwave/internal/node"
	"github.com/nerrad567/gray-logic-zwave/internal/process"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave/sim"
)

// steps records teardown calls across all mocks in order.
type steps struct {
	mu    sync.Mutex
	calls []string
}

func (s *steps) add(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *steps) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type mockController struct{ log *steps }

func (m mockController) RemoveWatcher() error {
	m.log.add("RemoveWatcher")
	return nil
}

func (m mockController) Destroy() error {
	m.log.add("Destroy")
	return nil
}

type mockRegistry struct{ log *steps }

func (m mockRegistry) Clear() { m.log.add("Clear") }

type mockQueue struct{ log *steps }

func (m mockQueue) Close() { m.log.add("CloseQueue") }

type mockRunner struct {
	log *steps
	err error
}

func (m mockRunner) Run(_ context.Context, action string) (*process.Result, error) {
	m.log.add("Run " + action)
	if m.err != nil {
		return nil, m.err
	}
	return &process.Result{Action: action}, nil
}

// mockDispatcher answers every request with the raw text and a stop action
// chosen by command name.
type mockDispatcher struct {
	mu   sync.Mutex
	seen []string
}

func (m *mockDispatcher) Dispatch(_ context.Context, raw string) command.Result {
	m.mu.Lock()
	m.seen = append(m.seen, raw)
	m.mu.Unlock()

	name, args := command.ParseRequest(raw)
	stop := command.StopNone
	switch name {
	case "reboot":
		stop = command.StopReboot
	case "shutdown":
		stop = command.StopShutdown
	}
	return command.Result{
		Command:  name,
		Args:     args,
		Body:     command.NewBody(command.MessageOk),
		Response: []byte(`{"echo":"` + name + `"}`),
		Stop:     stop,
	}
}

type serveResult struct {
	stop command.Stop
	err  error
}

func startServer(t *testing.T, cfg Config, deps Deps) (*Server, <-chan serveResult, context.CancelFunc) {
	t.Helper()
	cfg.Address = "127.0.0.1:0"
	s := New(cfg, deps)
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan serveResult, 1)
	go func() {
		stop, err := s.Serve(ctx)
		done <- serveResult{stop: stop, err: err}
	}()
	t.Cleanup(cancel)
	return s, done, cancel
}

// roundTrip writes one request and reads the newline-terminated reply.
func roundTrip(t *testing.T, addr net.Addr, request string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := conn.Write([]byte(request)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString() error = %v", err)
	}
	return line
}

func waitServe(t *testing.T, done <-chan serveResult) serveResult {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("Serve() did not return")
		return serveResult{}
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{}, Deps{})

	if s.cfg.Address != ":5000" {
		t.Errorf("Address = %q, want :5000", s.cfg.Address)
	}
	if s.cfg.BufferSize != 1024 {
		t.Errorf("BufferSize = %d, want 1024", s.cfg.BufferSize)
	}
	if s.Addr() != nil {
		t.Error("Addr() != nil before Listen")
	}
}

func TestServer_ServeBeforeListen(t *testing.T) {
	s := New(Config{}, Deps{Dispatcher: &mockDispatcher{}})
	if _, err := s.Serve(context.Background()); !errors.Is(err, ErrNotListening) {
		t.Errorf("Serve() error = %v, want ErrNotListening", err)
	}
}

func TestServer_ListenTwice(t *testing.T) {
	s := New(Config{Address: "127.0.0.1:0"}, Deps{})
	if err := s.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer s.listener.Close()
	if err := s.Listen(); !errors.Is(err, ErrAlreadyListening) {
		t.Errorf("second Listen() error = %v, want ErrAlreadyListening", err)
	}
}

func TestServer_SequentialRequests(t *testing.T) {
	d := &mockDispatcher{}
	s, _, _ := startServer(t, Config{}, Deps{Dispatcher: d})

	for _, req := range []string{"getNode", "help", "getNode,5"} {
		got := roundTrip(t, s.Addr(), req)
		name, _ := command.ParseRequest(req)
		if want := `{"echo":"` + name + `"}` + "\n"; got != want {
			t.Errorf("response to %q = %q, want %q", req, got, want)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.seen) != 3 {
		t.Errorf("dispatched %d requests, want 3", len(d.seen))
	}
}

func TestServer_ReadIsBounded(t *testing.T) {
	d := &mockDispatcher{}
	s, _, _ := startServer(t, Config{BufferSize: 8}, Deps{Dispatcher: d})

	conn, err := net.DialTimeout("tcp", s.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Write([]byte("setValue,123456789,on")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	// Unread request bytes may turn the close into a reset; only the
	// dispatched text matters here.
	_, _ = bufio.NewReader(conn).ReadString('\n')
	conn.Close()

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.seen) != 1 || d.seen[0] != "setValue" {
		t.Errorf("dispatched %q, want the first 8 bytes", d.seen)
	}
}

func TestServer_EmptyConnectionIsSkipped(t *testing.T) {
	d := &mockDispatcher{}
	s, _, _ := startServer(t, Config{ReadTimeout: 200 * time.Millisecond}, Deps{Dispatcher: d})

	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	conn.Close()

	// The loop keeps serving after an empty connection.
	if got := roundTrip(t, s.Addr(), "help"); !strings.Contains(got, "help") {
		t.Errorf("response = %q", got)
	}
}

func TestServer_StopTeardownOrder(t *testing.T) {
	tests := []struct {
		request  string
		wantStop command.Stop
	}{
		{request: "reboot", wantStop: command.StopReboot},
		{request: "shutdown", wantStop: command.StopShutdown},
	}

	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			log := &steps{}
			s, done, _ := startServer(t, Config{}, Deps{
				Dispatcher: &mockDispatcher{},
				Controller: mockController{log},
				Registry:   mockRegistry{log},
				Queue:      mockQueue{log},
				Runner:     mockRunner{log: log},
			})
			addr := s.Addr()

			roundTrip(t, addr, tt.request)
			r := waitServe(t, done)
			if r.err != nil {
				t.Fatalf("Serve() error = %v", r.err)
			}
			if r.stop != tt.wantStop {
				t.Errorf("Serve() stop = %v, want %v", r.stop, tt.wantStop)
			}

			want := "RemoveWatcher,Destroy,CloseQueue,Clear,Run " + tt.wantStop.String()
			if got := strings.Join(log.list(), ","); got != want {
				t.Errorf("teardown = %s, want %s", got, want)
			}

			if conn, err := net.DialTimeout("tcp", addr.String(), 200*time.Millisecond); err == nil {
				conn.Close()
				t.Error("listener still accepting after stop")
			}
		})
	}
}

func TestServer_ScriptFailureIsReturned(t *testing.T) {
	log := &steps{}
	s, done, _ := startServer(t, Config{}, Deps{
		Dispatcher: &mockDispatcher{},
		Runner:     mockRunner{log: log, err: process.ErrTimeout},
	})

	roundTrip(t, s.Addr(), "reboot")
	r := waitServe(t, done)
	if !errors.Is(r.err, process.ErrTimeout) {
		t.Errorf("Serve() error = %v, want ErrTimeout", r.err)
	}
}

func TestServer_MissingScriptIsNotAnError(t *testing.T) {
	log := &steps{}
	s, done, _ := startServer(t, Config{}, Deps{
		Dispatcher: &mockDispatcher{},
		Runner:     mockRunner{log: log, err: process.ErrNoScript},
	})

	roundTrip(t, s.Addr(), "shutdown")
	if r := waitServe(t, done); r.err != nil {
		t.Errorf("Serve() error = %v, want nil", r.err)
	}
}

func TestServer_CancelTearsDownWithoutScript(t *testing.T) {
	log := &steps{}
	_, done, cancel := startServer(t, Config{}, Deps{
		Dispatcher: &mockDispatcher{},
		Controller: mockController{log},
		Registry:   mockRegistry{log},
		Queue:      mockQueue{log},
		Runner:     mockRunner{log: log},
	})

	cancel()
	r := waitServe(t, done)
	if r.err != nil || r.stop != command.StopNone {
		t.Errorf("Serve() = (%v, %v), want (none, nil)", r.stop, r.err)
	}
	if got := strings.Join(log.list(), ","); got != "RemoveWatcher,Destroy,CloseQueue,Clear" {
		t.Errorf("teardown = %s", got)
	}
}

func TestServer_EndToEndWithDispatcher(t *testing.T) {
	dir := t.TempDir()
	ctrl := sim.New(0xC0FFEE01)
	logs, err := node.NewLogStore(filepath.Join(dir, "nodes"))
	if err != nil {
		t.Fatalf("NewLogStore() error = %v", err)
	}
	reg := node.NewRegistry(logs)
	catalog, err := mode.NewCatalog(mode.DefaultModes(), mode.DefaultModeName)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	d := command.New(command.Config{
		Registry: reg,
		Manager:  ctrl,
		Modes:    mode.NewStore(filepath.Join(dir, "config.json"), "", catalog),
	})

	s, done, _ := startServer(t, Config{}, Deps{Dispatcher: d, Controller: ctrl, Registry: reg})

	line := roundTrip(t, s.Addr(), "frobnicate\n")
	resp, body, err := command.Decode([]byte(strings.TrimSuffix(line, "\n")))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if resp.CommandName != "frobnicate" || body["status"] != float64(404) {
		t.Errorf("response = %s", line)
	}

	roundTrip(t, s.Addr(), "shutdown")
	if r := waitServe(t, done); r.stop != command.StopShutdown {
		t.Errorf("Serve() stop = %v, want shutdown", r.stop)
	}
	if !containsCall(ctrl.Calls(), "Destroy") {
		t.Errorf("controller calls = %v, want Destroy", ctrl.Calls())
	}
}

func containsCall(calls []string, want string) bool {
	for _, c := range calls {
		if c == want {
			return true
		}
	}
	return false
}
