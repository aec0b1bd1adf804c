// Package api exposes the HTTP surface for mission registration and
// conflict checking.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/asgard/deconflict/internal/api/response"
	"github.com/asgard/deconflict/internal/api/stream"
	"github.com/asgard/deconflict/internal/mission"
	"github.com/asgard/deconflict/internal/obsmetrics"
	"github.com/asgard/deconflict/internal/obstrace"
	"github.com/asgard/deconflict/internal/pipeline"
)

// MissionPublisher announces a locally registered mission to peer nodes.
type MissionPublisher interface {
	PublishMission(*mission.Mission) error
}

// Handler wires the mission registry and pipeline into HTTP routes.
type Handler struct {
	registry  *mission.Registry
	pipe      *pipeline.Pipeline
	metrics   *obsmetrics.Metrics
	stream    *stream.Hub
	publisher MissionPublisher
	log       *logrus.Logger
}

// NewHandler creates a Handler. hub may be nil, in which case check
// results are never broadcast; publisher may be nil, in which case
// registrations stay local to this node.
func NewHandler(registry *mission.Registry, pipe *pipeline.Pipeline, hub *stream.Hub, publisher MissionPublisher, log *logrus.Logger) *Handler {
	return &Handler{registry: registry, pipe: pipe, metrics: obsmetrics.Get(), stream: hub, publisher: publisher, log: log}
}

// Router builds the chi router: mission registration, conflict checking,
// live conflict streaming, health, and Prometheus metrics.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/v1/healthz", h.healthz)
	r.Post("/v1/registry/missions", h.registerMission)
	r.Post("/v1/check", h.check)
	if h.stream != nil {
		r.Get("/v1/stream", h.stream.ServeHTTP)
	}
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, map[string]any{"status": "ok", "registered": h.registry.Len()})
}

func (h *Handler) registerMission(w http.ResponseWriter, r *http.Request) {
	var wire mission.Wire
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		response.SendError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid mission payload: "+err.Error())
		return
	}

	m, err := mission.FromWire(wire)
	if err != nil {
		response.SendError(w, http.StatusUnprocessableEntity, "INVALID_MISSION", err.Error())
		return
	}

	overwrote := h.registry.Register(m)
	if overwrote && h.log != nil {
		h.log.WithField("drone_id", m.DroneID).Warn("mission registration overwrote an existing entry")
	}
	h.metrics.MissionsRegistered.Inc()

	if h.publisher != nil {
		if err := h.publisher.PublishMission(m); err != nil && h.log != nil {
			h.log.WithError(err).WithField("drone_id", m.DroneID).Warn("failed to announce mission to peers")
		}
	}

	response.Success(w, http.StatusCreated, m.ToWire())
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	var wire mission.Wire
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		response.SendError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid mission payload: "+err.Error())
		return
	}

	primary, err := mission.FromWire(wire)
	if err != nil {
		response.SendError(w, http.StatusUnprocessableEntity, "INVALID_MISSION", err.Error())
		return
	}

	_, span := obstrace.StartCheckSpan(r.Context(), primary.DroneID)
	isClear, conflicts, metrics := h.pipe.Check(primary)
	obstrace.RecordStageTimings(span, metrics.Stage1TimeMS, metrics.Stage2TimeMS, metrics.Stage3TimeMS, metrics.TotalTimeMS)
	span.End()

	h.metrics.ObserveCheck(isClear, metrics.Stage1TimeMS/1000, metrics.Stage2TimeMS/1000, metrics.Stage3TimeMS/1000, metrics.Stage1Initial, metrics.Stage1Survived)
	for _, c := range conflicts {
		h.metrics.ConflictsBySeverity.WithLabelValues(c.Severity.String()).Inc()
	}

	result := pipeline.ToResult(isClear, conflicts, metrics)
	if h.stream != nil {
		h.stream.Broadcast(stream.Event{DroneID: primary.DroneID, Result: result})
	}

	response.Success(w, http.StatusOK, result)
}
