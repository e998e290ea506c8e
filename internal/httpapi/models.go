package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ModelID is the single model this server hosts.
const ModelID = "qwen3-tts"

type modelSummary struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type listModelsResponse struct {
	Object string         `json:"object"`
	Data   []modelSummary `json:"data"`
}

// modelCreated is a fixed release timestamp, not a boot time, so the
// listing is stable across restarts.
const modelCreated int64 = 1735689600

func (s *Server) handleListModels(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, listModelsResponse{
		Object: "list",
		Data: []modelSummary{
			{ID: ModelID, Object: "model", Created: modelCreated, OwnedBy: "aria"},
		},
	})
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id != ModelID {
		respondError(w, http.StatusNotFound, "model_not_found", "unknown model "+id)
		return
	}
	respondJSON(w, http.StatusOK, modelSummary{ID: ModelID, Object: "model", Created: modelCreated, OwnedBy: "aria"})
}
