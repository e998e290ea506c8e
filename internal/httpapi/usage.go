package httpapi

import (
	"net/http"
	"strconv"

	"github.com/ent0n29/aria/internal/usage"
)

const maxUsageLimit = 500

type listUsageResponse struct {
	Records []usage.Record `json:"records"`
}

func (s *Server) handleListUsage(w http.ResponseWriter, r *http.Request) {
	if s.usageStore == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "usage log not configured")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxUsageLimit {
		limit = maxUsageLimit
	}

	records, err := s.usageStore.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "usage_query_failed", err.Error())
		return
	}
	if records == nil {
		records = []usage.Record{}
	}
	respondJSON(w, http.StatusOK, listUsageResponse{Records: records})
}
