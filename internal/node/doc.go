// Package node holds the in-process view of the Z-Wave network.
//
// The Registry maps node ids to NodeInfo records. It preserves insertion order
// for enumeration, deduplicates values by their external id, and excludes the
// controller (node 1) from dead/alive accounting and neighbor tracking.
//
// The LogStore keeps a per-node append-only event log which is deleted when
// the node is removed from the Registry.
//
// # Usage
//
//	logs, err := node.NewLogStore(cfg.Paths.NodeLogs)
//	if err != nil {
//	    return err
//	}
//	reg := node.NewRegistry(logs)
//	reg.Upsert(node.NewNodeInfo(homeID, 5))
//	reg.AddValue(5, valueID)
//
// # Thread Safety
//
// All Registry methods take the same exclusive lock. Callers must not call
// the controller while holding any lock obtained from this package; the
// Registry never does.
package node
