// Package mqtt connects zwaved to an MQTT broker.
//
// zwaved uses the broker for two things:
//   - publishing retained node status and liveness totals so dashboards and
//     other services can follow the network without polling the socket
//   - talking to a remote Z-Wave gateway when the controller is not attached
//     locally (zwave.driver: gateway)
//
// The client announces itself on Topics.Status with a retained "online"
// message and registers a Last Will so the broker marks it "offline" if the
// process dies. Subscriptions are remembered and restored after reconnects,
// and handler panics are recovered and logged.
//
// # Usage
//
//	client, err := mqtt.Connect(ctx, cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	err = client.PublishJSON(topics.NodeState(7), state, true)
package mqtt
