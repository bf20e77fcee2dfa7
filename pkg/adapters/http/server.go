package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"log/slog"

	"github.com/aretw0/ripple/pkg/domain"
	"github.com/aretw0/ripple/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// Server is an event ingest gateway: it accepts domain events over HTTP and
// publishes them onto a transport for reactors to consume.
type Server struct {
	publisher ports.Publisher
	logger    *slog.Logger
}

// NewHandler creates the HTTP handler for the gateway.
func NewHandler(publisher ports.Publisher, logger *slog.Logger) http.Handler {
	s := &Server{
		publisher: publisher,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.Health)
	r.Post("/events", s.Ingest)
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Ingest handles POST /events: decode, validate, publish.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	var ev domain.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Ingest: invalid request body", "err", err)
		return
	}

	if err := ev.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if err := s.publisher.Publish(r.Context(), ev); err != nil {
		// A synchronous bus surfaces handler failures here; argument errors
		// from the reactor map to a client fault, everything else is a 502.
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrMissingEventType) || errors.Is(err, domain.ErrMissingSagaVersion) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, fmt.Sprintf("Publish error: %v", err), status)
		s.logger.Error("Ingest: publish failed", "event_type", ev.Type, "err", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "accepted",
		"type":   ev.Type,
	})
}
