package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-zwave/internal/node"
	"github.com/nerrad567/gray-logic-zwave/internal/telemetry"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
)

// NodeList is the body of the node list endpoint.
type NodeList struct {
	HomeID string                 `json:"home_id"`
	Alive  int                    `json:"alive"`
	Dead   int                    `json:"dead"`
	Nodes  []telemetry.NodeStatus `json:"nodes"`
}

// NodeDetail is one registry record with its neighbor list expanded.
type NodeDetail struct {
	node.NodeInfo
	Neighbors []int `json:"neighbors"`
}

func (s *Server) handleListNodes(w http.ResponseWriter, _ *http.Request) {
	all := s.registry.All()
	resp := NodeList{
		HomeID: fmt.Sprintf("0x%08x", s.registry.HomeID()),
		Alive:  s.registry.CountAlive(),
		Dead:   s.registry.CountDead(),
		Nodes:  make([]telemetry.NodeStatus, 0, len(all)),
	}
	for _, n := range all {
		resp.Nodes = append(resp.Nodes, telemetry.NewNodeStatus(n))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id, ok := nodeIDParam(w, r)
	if !ok {
		return
	}
	n, found := s.registry.Get(id)
	if !found {
		writeNotFound(w, fmt.Sprintf("node %d not found", id))
		return
	}
	if n.Values == nil {
		n.Values = []zwave.ValueID{}
	}
	writeJSON(w, http.StatusOK, NodeDetail{NodeInfo: n, Neighbors: n.Neighbors.NodeIDs()})
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeUnavailable(w, "node snapshots not configured")
		return
	}
	snaps, err := s.snapshots.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list node snapshots", "error", err)
		writeInternalError(w, "failed to list node snapshots")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeUnavailable(w, "node snapshots not configured")
		return
	}
	id, ok := nodeIDParam(w, r)
	if !ok {
		return
	}
	snap, err := s.snapshots.Get(r.Context(), s.registry.HomeID(), id)
	if errors.Is(err, telemetry.ErrSnapshotNotFound) {
		writeNotFound(w, fmt.Sprintf("no snapshot for node %d", id))
		return
	}
	if err != nil {
		s.logger.Error("failed to read node snapshot", "node", id, "error", err)
		writeInternalError(w, "failed to read node snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// nodeIDParam parses the {id} path parameter, writing a 400 on failure.
func nodeIDParam(w http.ResponseWriter, r *http.Request) (uint8, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 8)
	if err != nil || id == 0 {
		writeBadRequest(w, fmt.Sprintf("invalid node id %q", raw))
		return 0, false
	}
	return uint8(id), true
}
