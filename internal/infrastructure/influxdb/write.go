package influxdb

import (
	"context"
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written by zwaved.
const (
	MeasurementLiveness = "zwave_liveness"
	MeasurementNode     = "zwave_node"
	MeasurementCommand  = "zwave_command"
)

// RecordLiveness writes the alive/dead totals of one liveness sweep. It
// satisfies liveness.CountSink.
func (c *Client) RecordLiveness(_ context.Context, alive, dead int) {
	c.WritePoint(MeasurementLiveness, nil, map[string]any{
		"alive": alive,
		"dead":  dead,
		"total": alive + dead,
	})
}

// WriteNodeState records one node's reachability. Tags stay low
// cardinality: a network has at most 232 nodes.
func (c *Client) WriteNodeState(homeID uint32, nodeID uint8, nodeType string, dead bool, lastSync time.Time) {
	fields := map[string]any{"dead": dead}
	if !lastSync.IsZero() {
		fields["last_sync_age_s"] = c.now().Sub(lastSync).Seconds()
	}
	c.WritePoint(MeasurementNode, map[string]string{
		"home_id": strconv.FormatUint(uint64(homeID), 16),
		"node_id": strconv.Itoa(int(nodeID)),
		"type":    nodeType,
	}, fields)
}

// WriteCommand records one socket command and its status code.
func (c *Client) WriteCommand(command string, status int) {
	c.WritePoint(MeasurementCommand, map[string]string{
		"command": command,
		"class":   strconv.Itoa(status/100) + "xx",
	}, map[string]any{
		"status": status,
	})
}

// WritePoint writes a point stamped now. Writes after Close are dropped.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, c.now())
}

// WritePointWithTime writes a point with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, ts))
}
