package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/ent0n29/aria/internal/config"
	"github.com/ent0n29/aria/internal/observability"
	"github.com/ent0n29/aria/internal/tts"
	"github.com/ent0n29/aria/internal/usage"
)

// Orchestrator is the synthesis pipeline the API fronts.
type Orchestrator interface {
	Synthesize(ctx context.Context, req tts.Request) (*tts.Result, error)
	SynthesizeStream(ctx context.Context, req tts.Request) (*tts.Stream, error)
	Catalog() *tts.Catalog
}

type Server struct {
	cfg          config.Config
	orchestrator Orchestrator
	loader       *tts.Loader
	usageStore   usage.Store
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
	static       http.Handler
}

func New(cfg config.Config, orchestrator Orchestrator, loader *tts.Loader, store usage.Store, metrics *observability.Metrics) *Server {
	allowAny := len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*"
	return &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		loader:       loader,
		usageStore:   store,
		metrics:      metrics,
		static:       newStaticHandler(cfg.StaticDir),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if allowAny {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				if strings.EqualFold(u.Host, r.Host) {
					return true
				}
				for _, allowed := range cfg.CORSOrigins {
					if strings.EqualFold(strings.TrimSpace(allowed), origin) {
						return true
					}
				}
				return false
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", s.static))

	r.Get("/health", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/audio/speech", s.handleSpeech)
	r.Get("/v1/audio/speech/ws", s.handleSpeechWS)
	r.Get("/v1/models", s.handleListModels)
	r.Get("/v1/models/{id}", s.handleGetModel)
	r.Get("/v1/voices", s.handleListVoices)
	r.Get("/v1/usage", s.handleListUsage)

	return r
}

// handleHealth is process liveness only. It stays healthy while the
// model loads so probes do not kill a pod during a long first load.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

// handleReady reports the loader state without blocking on it.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	state, lastErr := s.loader.State()
	body := map[string]any{"status": string(state)}
	if lastErr != nil {
		body["error"] = lastErr.Error()
	}
	status := http.StatusOK
	if state != tts.LoaderReady {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, body)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// respondTTSError maps the pipeline error taxonomy to HTTP statuses:
// bad requests are the client's fault, a failed load is retryable
// server unavailability, everything else is a server error.
func respondTTSError(w http.ResponseWriter, err error) {
	var vErr *tts.ValidationError
	var lErr *tts.ModelLoadError
	var iErr *tts.InferenceError
	var eErr *tts.EncodingError
	switch {
	case errors.As(err, &vErr):
		respondError(w, http.StatusBadRequest, "invalid_request", vErr.Error())
	case errors.As(err, &lErr):
		respondError(w, http.StatusServiceUnavailable, "model_unavailable", lErr.Error())
	case errors.As(err, &iErr):
		respondError(w, http.StatusInternalServerError, "inference_failed", iErr.Error())
	case errors.As(err, &eErr):
		respondError(w, http.StatusInternalServerError, "encoding_failed", eErr.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "synthesis_timeout", "synthesis did not finish in time")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
