package sim

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

const testHomeID = 0xC0FFEE01

// collector records notification types in delivery order.
type collector struct {
	mu    sync.Mutex
	types []string
}

func (c *collector) watch(n zwave.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = append(c.types, n.Type.String())
}

func (c *collector) list() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.types, ",")
}

func TestAddDriver_ReplaysStartup(t *testing.T) {
	ctrl := New(testHomeID)
	ctrl.AddSimNode(Node{ID: 5, Name: "lamp"})
	ctrl.AddSimValue(5, zwave.CommandClassSwitchBinary, 1, 0, zwave.ValueTypeBool, "Switch", "False")

	c := &collector{}
	if err := ctrl.AddWatcher(c.watch); err != nil {
		t.Fatalf("AddWatcher() error = %v", err)
	}
	if err := ctrl.AddDriver("/dev/ttyACM0"); err != nil {
		t.Fatalf("AddDriver() error = %v", err)
	}

	want := "DRIVER_READY,NODE_ADDED,NODE_ADDED,VALUE_ADDED,NODE_QUERIES_COMPLETE,NODE_QUERIES_COMPLETE,ALL_NODES_QUERIED"
	if got := c.list(); got != want {
		t.Errorf("notifications = %s, want %s", got, want)
	}

	if err := ctrl.AddDriver("/dev/ttyACM0"); err == nil {
		t.Error("second AddDriver() error = nil")
	}
}

func TestAddWatcher_Twice(t *testing.T) {
	ctrl := New(testHomeID)
	if err := ctrl.AddWatcher(func(zwave.Notification) {}); err != nil {
		t.Fatalf("AddWatcher() error = %v", err)
	}
	if err := ctrl.AddWatcher(func(zwave.Notification) {}); !errors.Is(err, zwave.ErrWatcherExists) {
		t.Errorf("second AddWatcher() error = %v, want ErrWatcherExists", err)
	}
}

func TestSetValueFromString_Coercion(t *testing.T) {
	ctrl := New(testHomeID)
	ctrl.AddSimNode(Node{ID: 7})

	tests := []struct {
		name    string
		typ     zwave.ValueType
		items   []string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bool on", typ: zwave.ValueTypeBool, input: "on", want: "True"},
		{name: "bool zero", typ: zwave.ValueTypeBool, input: "0", want: "False"},
		{name: "bool garbage", typ: zwave.ValueTypeBool, input: "maybe", wantErr: true},
		{name: "byte", typ: zwave.ValueTypeByte, input: " 42 ", want: "42"},
		{name: "byte overflow", typ: zwave.ValueTypeByte, input: "300", wantErr: true},
		{name: "short negative", typ: zwave.ValueTypeShort, input: "-12", want: "-12"},
		{name: "decimal", typ: zwave.ValueTypeDecimal, input: "1.50", want: "1.5"},
		{name: "list case-insensitive", typ: zwave.ValueTypeList, items: []string{"Low", "High"}, input: "high", want: "High"},
		{name: "list unknown item", typ: zwave.ValueTypeList, items: []string{"Low"}, input: "Max", wantErr: true},
		{name: "string", typ: zwave.ValueTypeString, input: "kitchen", want: "kitchen"},
		{name: "button press", typ: zwave.ValueTypeButton, input: "press", want: "True"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ctrl.AddSimValue(7, zwave.CommandClassConfiguration, 1, uint8(i), tt.typ, tt.name, "", tt.items...)

			err := ctrl.SetValueFromString(v, tt.input)
			if tt.wantErr {
				if !errors.Is(err, zwave.ErrInvalidValue) {
					t.Errorf("SetValueFromString() error = %v, want ErrInvalidValue", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetValueFromString() error = %v", err)
			}
			if got, _ := ctrl.Value(v); got != tt.want {
				t.Errorf("value = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetValue_EmitsValueChanged(t *testing.T) {
	ctrl := New(testHomeID)
	ctrl.AddSimNode(Node{ID: 3})
	v := ctrl.AddSimValue(3, zwave.CommandClassSwitchMultilevel, 1, 0, zwave.ValueTypeByte, "Level", "0")

	c := &collector{}
	if err := ctrl.AddWatcher(c.watch); err != nil {
		t.Fatalf("AddWatcher() error = %v", err)
	}
	if err := ctrl.SetValueFromString(v, "99"); err != nil {
		t.Fatalf("SetValueFromString() error = %v", err)
	}
	if got := c.list(); got != "VALUE_CHANGED" {
		t.Errorf("notifications = %s, want VALUE_CHANGED", got)
	}

	n, err := ctrl.GetValueAsInt(v)
	if err != nil || n != 99 {
		t.Errorf("GetValueAsInt() = (%d, %v), want (99, nil)", n, err)
	}
}

func TestPingNode(t *testing.T) {
	ctrl := New(testHomeID)
	ctrl.AddSimNode(Node{ID: 4})
	ctrl.AddSimNode(Node{ID: 9, Failed: true})

	tests := []struct {
		name    string
		homeID  uint32
		nodeID  uint8
		want    bool
		wantErr error
	}{
		{name: "reachable", homeID: testHomeID, nodeID: 4, want: true},
		{name: "failed node", homeID: testHomeID, nodeID: 9, want: false},
		{name: "unknown node", homeID: testHomeID, nodeID: 44, wantErr: zwave.ErrUnknownNode},
		{name: "wrong network", homeID: 1, nodeID: 4, wantErr: zwave.ErrNotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ctrl.PingNode(tt.homeID, tt.nodeID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("PingNode() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PingNode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResetController_ForgetsNodes(t *testing.T) {
	ctrl := New(testHomeID)
	ctrl.AddSimNode(Node{ID: 6})
	v := ctrl.AddSimValue(6, zwave.CommandClassBattery, 1, 0, zwave.ValueTypeByte, "Battery", "80")

	c := &collector{}
	if err := ctrl.AddWatcher(c.watch); err != nil {
		t.Fatalf("AddWatcher() error = %v", err)
	}
	if err := ctrl.ResetController(testHomeID); err != nil {
		t.Fatalf("ResetController() error = %v", err)
	}
	if got := c.list(); got != "DRIVER_RESET" {
		t.Errorf("notifications = %s, want DRIVER_RESET", got)
	}
	if _, err := ctrl.GetNodeName(testHomeID, 6); !errors.Is(err, zwave.ErrUnknownNode) {
		t.Errorf("GetNodeName() error = %v, want ErrUnknownNode", err)
	}
	if _, err := ctrl.GetValueAsString(v); !errors.Is(err, zwave.ErrUnknownValue) {
		t.Errorf("GetValueAsString() error = %v, want ErrUnknownValue", err)
	}
}

func TestDestroy(t *testing.T) {
	ctrl := New(testHomeID)
	if err := ctrl.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if _, err := ctrl.GetNodeName(testHomeID, zwave.ControllerNodeID); !errors.Is(err, zwave.ErrDestroyed) {
		t.Errorf("GetNodeName() error = %v, want ErrDestroyed", err)
	}
	if err := ctrl.AddWatcher(func(zwave.Notification) {}); !errors.Is(err, zwave.ErrDestroyed) {
		t.Errorf("AddWatcher() error = %v, want ErrDestroyed", err)
	}
	if got := strings.Join(ctrl.Calls(), ","); got != "Destroy" {
		t.Errorf("Calls() = %s", got)
	}
}

func TestGetCommandClassName(t *testing.T) {
	ctrl := New(testHomeID)
	if got := ctrl.GetCommandClassName(zwave.CommandClassWakeUp); got != "COMMAND_CLASS_WAKE_UP" {
		t.Errorf("GetCommandClassName(0x84) = %q", got)
	}
	if got := ctrl.GetCommandClassName(0xEE); got != "COMMAND_CLASS_0xEE" {
		t.Errorf("GetCommandClassName(0xEE) = %q", got)
	}
}
