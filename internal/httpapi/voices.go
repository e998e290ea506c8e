package httpapi

import (
	"net/http"

	"github.com/ent0n29/aria/internal/tts"
)

type listVoicesResponse struct {
	DefaultVoiceID string      `json:"default_voice_id"`
	Voices         []tts.Voice `json:"voices"`
}

func (s *Server) handleListVoices(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, listVoicesResponse{
		DefaultVoiceID: s.cfg.DefaultVoice,
		Voices:         s.orchestrator.Catalog().Voices(),
	})
}
