package httpapi

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/carelinehq/intakeline/internal/call"
	"github.com/carelinehq/intakeline/internal/config"
	"github.com/carelinehq/intakeline/internal/observability"
	"github.com/carelinehq/intakeline/internal/policy"
	"github.com/carelinehq/intakeline/internal/questionnaire"
)

// Orchestrator runs one call end to end.
type Orchestrator interface {
	Run(ctx context.Context, c *call.Call, sections []questionnaire.Section, tel, model call.Conn) error
}

// ModelDialer opens the realtime model connection for one call.
type ModelDialer func(ctx context.Context) (call.Conn, error)

type Server struct {
	cfg          config.Config
	registry     *call.Manager
	orchestrator Orchestrator
	store        questionnaire.Store
	metrics      *observability.Metrics
	dialModel    ModelDialer
	upgrader     websocket.Upgrader
}

func New(cfg config.Config, registry *call.Manager, orchestrator Orchestrator, store questionnaire.Store, metrics *observability.Metrics, dialModel ModelDialer) *Server {
	return &Server{
		cfg:          cfg,
		registry:     registry,
		orchestrator: orchestrator,
		store:        store,
		metrics:      metrics,
		dialModel:    dialModel,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Telephony providers connect server-to-server and usually
				// omit Origin; browsers are restricted to same-origin.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/voice/incoming", s.handleIncomingCall)
	r.Get("/v1/voice/media-stream", s.handleMediaStream)
	r.Get("/v1/calls", s.handleListCalls)
	r.Post("/v1/calls/{id}/end", s.handleEndCall)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ready",
		"active_calls": s.registry.ActiveCount(),
	})
}

// connectResponse is the answer document that tells the provider to open a
// media stream back to this service.
type connectResponse struct {
	XMLName xml.Name `xml:"Response"`
	Connect struct {
		Stream struct {
			URL string `xml:"url,attr"`
		} `xml:"Stream"`
	} `xml:"Connect"`
}

func (s *Server) handleIncomingCall(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	callSID := strings.TrimSpace(r.FormValue("CallSid"))
	from := strings.TrimSpace(r.FormValue("From"))
	if callSID == "" {
		http.Error(w, "CallSid is required", http.StatusBadRequest)
		return
	}
	log.Printf("incoming call %s from %s", callSID, policy.MaskCallerID(from))

	base := s.cfg.PublicBaseURL
	if base == "" {
		base = "https://" + r.Host
	}
	wsURL := strings.Replace(strings.Replace(base, "https://", "wss://", 1), "http://", "ws://", 1)
	wsURL = fmt.Sprintf("%s/v1/voice/media-stream?call_sid=%s&from=%s",
		strings.TrimRight(wsURL, "/"), url.QueryEscape(callSID), url.QueryEscape(from))

	var doc connectResponse
	doc.Connect.Stream.URL = wsURL

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(doc)
}

func (s *Server) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	callSID := strings.TrimSpace(r.URL.Query().Get("call_sid"))
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	if callSID == "" {
		http.Error(w, "call_sid is required", http.StatusBadRequest)
		return
	}
	if s.orchestrator == nil || s.dialModel == nil {
		http.Error(w, "orchestrator not configured", http.StatusNotImplemented)
		return
	}

	tel, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer tel.Close()

	model, err := s.dialModel(r.Context())
	if err != nil {
		log.Printf("call %s: model dial failed: %v", callSID, err)
		return
	}
	defer model.Close()

	c := s.registry.Create(callSID, from)
	s.metrics.ActiveCalls.Set(float64(s.registry.ActiveCount()))
	s.metrics.CallEvents.WithLabelValues("started").Inc()

	sections := questionnaire.DefaultSections(s.store, c.ID)
	if err := s.orchestrator.Run(r.Context(), c, sections, tel, model); err != nil {
		log.Printf("call %s: session ended with error: %v", c.ID, err)
	}
}

func (s *Server) handleListCalls(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"calls": s.registry.List()})
}

func (s *Server) handleEndCall(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_call_id", "missing call id")
		return
	}
	c, err := s.registry.End(id)
	switch {
	case errors.Is(err, call.ErrAlreadyEnded):
		respondJSON(w, http.StatusOK, c)
		return
	case err != nil:
		respondError(w, http.StatusNotFound, "call_not_found", err.Error())
		return
	}
	s.metrics.ActiveCalls.Set(float64(s.registry.ActiveCount()))
	s.metrics.CallEvents.WithLabelValues("operator_ended").Inc()
	respondJSON(w, http.StatusOK, c)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
