package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleEngineStats(w http.ResponseWriter, r *http.Request) {
	totals, err := s.orchestrator.Store().Totals(r.Context())
	if err != nil {
		jsonError(w, "failed to read totals: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"stats":       s.orchestrator.Stats().Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
		"stored":      totals,
	})
}
