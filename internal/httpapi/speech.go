package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/aria/internal/tts"
)

// handleSpeech implements POST /v1/audio/speech. The response is
// either one complete audio payload or, when stream is set, chunked
// audio flushed as the encoder produces it.
func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req tts.Request
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ctx := r.Context()
	if s.cfg.SynthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SynthTimeout)
		defer cancel()
	}

	if !req.Stream {
		res, err := s.orchestrator.Synthesize(ctx, req)
		if err != nil {
			respondTTSError(w, err)
			return
		}
		w.Header().Set("Content-Type", res.ContentType)
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Audio)
		return
	}

	stream, err := s.orchestrator.SynthesizeStream(ctx, req)
	if err != nil {
		respondTTSError(w, err)
		return
	}

	w.Header().Set("Content-Type", stream.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for chunk := range stream.Chunks {
		if _, err := w.Write(chunk); err != nil {
			// Client is gone; the request context unwinds the encoder.
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		// Headers are already sent; the truncated body is all the client
		// can observe. Keep the cause in the server log.
		log.Printf("streaming synthesis aborted: %v", err)
	}
}

type wsSpeechEvent struct {
	Type   string `json:"type"`
	Seq    int    `json:"seq,omitempty"`
	Audio  string `json:"audio,omitempty"`
	Format string `json:"format,omitempty"`
	Bytes  int    `json:"bytes,omitempty"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// handleSpeechWS streams one synthesis over a websocket: the client
// sends a single request object and receives ordered audio.chunk
// events followed by a terminal audio.done or error event.
func (s *Server) handleSpeechWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	var req tts.Request
	if err := conn.ReadJSON(&req); err != nil {
		_ = writeWSEvent(conn, wsSpeechEvent{Type: "error", Code: "invalid_request", Detail: err.Error()})
		return
	}

	ctx := r.Context()
	if s.cfg.SynthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SynthTimeout)
		defer cancel()
	}

	stream, err := s.orchestrator.SynthesizeStream(ctx, req)
	if err != nil {
		_ = writeWSEvent(conn, wsSpeechEvent{Type: "error", Code: wsErrorCode(err), Detail: err.Error()})
		return
	}

	seq := 0
	total := 0
	for chunk := range stream.Chunks {
		seq++
		total += len(chunk)
		event := wsSpeechEvent{
			Type:   "audio.chunk",
			Seq:    seq,
			Audio:  base64.StdEncoding.EncodeToString(chunk),
			Format: string(stream.Format),
		}
		if err := writeWSEvent(conn, event); err != nil {
			// Writer failure means the peer disconnected; cancelling the
			// context stops the encoder.
			return
		}
	}
	if err := stream.Err(); err != nil {
		_ = writeWSEvent(conn, wsSpeechEvent{Type: "error", Code: wsErrorCode(err), Detail: err.Error()})
		return
	}
	_ = writeWSEvent(conn, wsSpeechEvent{Type: "audio.done", Seq: seq, Bytes: total, Format: string(stream.Format)})
}

func writeWSEvent(conn *websocket.Conn, event wsSpeechEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(event)
}

func wsErrorCode(err error) string {
	switch tts.Outcome(err) {
	case "validation":
		return "invalid_request"
	case "model_load":
		return "model_unavailable"
	case "inference":
		return "inference_failed"
	case "encoding":
		return "encoding_failed"
	case "canceled":
		return "canceled"
	default:
		return "internal_error"
	}
}
