package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/asgard/deconflict/internal/mission"
	"github.com/asgard/deconflict/internal/pipeline"
)

func newTestHandler() *Handler {
	registry := mission.NewRegistry()
	pipe := pipeline.New(registry, pipeline.DefaultConfig(), nil)
	return NewHandler(registry, pipe, nil, nil, nil)
}

func TestHealthzHandler(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body["success"] != true {
		t.Errorf("expected success=true, got %v", body["success"])
	}
}

func TestRegisterMissionHandler(t *testing.T) {
	h := newTestHandler()

	body := []byte(`{"drone_id":"d1","start_time":0,"end_time":10,"waypoints":[{"x":0,"y":0,"z":100},{"x":100,"y":0,"z":100}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/registry/missions", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if h.registry.Len() != 1 {
		t.Errorf("registry.Len() = %d, want 1", h.registry.Len())
	}
}

func TestRegisterMissionHandlerRejectsInvalid(t *testing.T) {
	h := newTestHandler()

	body := []byte(`{"drone_id":"d1","start_time":10,"end_time":5,"waypoints":[{"x":0,"y":0,"z":0},{"x":1,"y":0,"z":0}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/registry/missions", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422 for end<=start, got %d", w.Code)
	}
}

func TestCheckHandlerReturnsClearForEmptyRegistry(t *testing.T) {
	h := newTestHandler()

	body := []byte(`{"drone_id":"primary","start_time":0,"end_time":100,"waypoints":[{"x":0,"y":0,"z":100},{"x":1000,"y":0,"z":100}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/check", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			IsClear bool `json:"is_clear"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if !envelope.Data.IsClear {
		t.Errorf("expected is_clear=true for an empty registry")
	}
}

type recordingPublisher struct {
	published []string
}

func (p *recordingPublisher) PublishMission(m *mission.Mission) error {
	p.published = append(p.published, m.DroneID)
	return nil
}

// TestRegisterMissionAnnouncesToPeers: a successful local registration is
// published through the configured MissionPublisher.
func TestRegisterMissionAnnouncesToPeers(t *testing.T) {
	registry := mission.NewRegistry()
	pipe := pipeline.New(registry, pipeline.DefaultConfig(), nil)
	pub := &recordingPublisher{}
	h := NewHandler(registry, pipe, nil, pub, nil)

	body := []byte(`{"drone_id":"d1","start_time":0,"end_time":10,"waypoints":[{"x":0,"y":0,"z":100},{"x":100,"y":0,"z":100}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/registry/missions", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(pub.published) != 1 || pub.published[0] != "d1" {
		t.Errorf("published drone IDs = %v, want [d1]", pub.published)
	}
}

// TestRegisterMissionInvalidIsNotAnnounced: a rejected payload must not
// reach the publisher.
func TestRegisterMissionInvalidIsNotAnnounced(t *testing.T) {
	registry := mission.NewRegistry()
	pipe := pipeline.New(registry, pipeline.DefaultConfig(), nil)
	pub := &recordingPublisher{}
	h := NewHandler(registry, pipe, nil, pub, nil)

	body := []byte(`{"drone_id":"d1","start_time":10,"end_time":5,"waypoints":[{"x":0,"y":0,"z":0},{"x":1,"y":0,"z":0}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/registry/missions", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Router().ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", w.Code)
	}
	if len(pub.published) != 0 {
		t.Errorf("invalid mission was announced to peers: %v", pub.published)
	}
}
