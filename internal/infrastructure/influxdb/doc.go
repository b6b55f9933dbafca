// Package influxdb writes zwaved's time series to InfluxDB v2.
//
// Three measurements are recorded:
//   - zwave_liveness: alive, dead and total after each liveness sweep
//   - zwave_node: per-node reachability, tagged by home and node id
//   - zwave_command: one point per socket command with its status code
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without time series
//	}
//	defer client.Close()
//
//	monitor := liveness.New(reg, ctrl, liveness.Config{Sink: client})
//
// Writes are batched according to batch_size and flush_interval and never
// block the caller. Batch failures are delivered to SetOnError.
package influxdb
