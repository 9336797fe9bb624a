package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jobs": s.jobs.Len(),
		"outline_cache": map[string]any{
			"entries":  s.outlines.Len(),
			"capacity": s.cfg.OutlineCacheSize,
			"hits":     s.cacheHits.Load(),
			"misses":   s.cacheMisses.Load(),
		},
	})
}
