package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rcliao/wayfarer/internal/config"
	"github.com/rcliao/wayfarer/internal/llm"
	"github.com/rcliao/wayfarer/internal/model"
	"github.com/rcliao/wayfarer/internal/suggest"
)

type stubGenerator struct {
	result   *model.GenerationResult
	err      error
	report   suggest.HealthReport
	requests []model.GenerationRequest
}

func (s *stubGenerator) Generate(ctx context.Context, req model.GenerationRequest) (*model.GenerationResult, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubGenerator) HealthCheck(ctx context.Context) suggest.HealthReport {
	return s.report
}

type stubCatalog struct {
	models []llm.Model
	err    error
}

func (s *stubCatalog) ListFineTunedModels(ctx context.Context) ([]llm.Model, error) {
	return s.models, s.err
}

func newTestHandler(t *testing.T, gen Generator, catalog ModelCatalog, perMinute int) http.Handler {
	t.Helper()
	cfg := config.Settings{
		Model:              "gpt-4o-mini",
		HTTPAddr:           ":0",
		RateLimitPerMinute: perMinute,
	}
	return NewServer(cfg, gen, catalog, nil).handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func sampleResult() *model.GenerationResult {
	rating := 4.7
	return &model.GenerationResult{
		Destinations: []model.Destination{{
			ID:      "01HXAMPLE0000000000000TEST",
			Place:   "Whistler",
			Country: "Canada",
			Theme:   model.ThemeSports,
			Rating:  &rating,
		}},
		Theme:       model.ThemeSports,
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Elapsed:     1.25,
	}
}

func TestGenerateEndpoint(t *testing.T) {
	gen := &stubGenerator{result: sampleResult()}
	h := newTestHandler(t, gen, &stubCatalog{}, 0)

	rr := doJSON(t, h, http.MethodPost, "/api/generate",
		`{"theme": "sports", "count": 2, "include_activities": false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var result model.GenerationResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Destinations) != 1 || result.Destinations[0].Place != "Whistler" {
		t.Errorf("destinations = %+v", result.Destinations)
	}

	if len(gen.requests) != 1 {
		t.Fatalf("generator called %d times", len(gen.requests))
	}
	req := gen.requests[0]
	if req.Theme != model.ThemeSports {
		t.Errorf("theme = %q, want canonical %q", req.Theme, model.ThemeSports)
	}
	if req.Count != 2 || req.IncludeActivities {
		t.Errorf("request = %+v", req)
	}
}

func TestGenerateDefaults(t *testing.T) {
	gen := &stubGenerator{result: sampleResult()}
	h := newTestHandler(t, gen, &stubCatalog{}, 0)

	rr := doJSON(t, h, http.MethodPost, "/api/generate", `{"theme": "entertainment"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	if len(gen.requests) != 1 {
		t.Fatalf("generator called %d times", len(gen.requests))
	}
	req := gen.requests[0]
	if req.Count != model.DefaultDestinations {
		t.Errorf("count = %d, want default %d", req.Count, model.DefaultDestinations)
	}
	if !req.IncludeActivities {
		t.Error("include_activities should default to true")
	}
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"theme": `, "invalid JSON body"},
		{"unknown theme", `{"theme": "space"}`, "unknown theme"},
		{"count too high", `{"theme": "sports", "count": 50}`, "out of range"},
		{"count too low", `{"theme": "sports", "count": -1}`, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{result: sampleResult()}
			h := newTestHandler(t, gen, &stubCatalog{}, 0)

			rr := doJSON(t, h, http.MethodPost, "/api/generate", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
			}
			var errBody map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &errBody); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if !strings.Contains(errBody["error"], tt.want) {
				t.Errorf("error = %q, want mention of %q", errBody["error"], tt.want)
			}
			if len(gen.requests) != 0 {
				t.Errorf("generator called %d times on invalid input", len(gen.requests))
			}
		})
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("provider rejected the request")}
	h := newTestHandler(t, gen, &stubCatalog{}, 0)

	rr := doJSON(t, h, http.MethodPost, "/api/generate", `{"theme": "sports"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "provider rejected the request") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestGenerateRateLimited(t *testing.T) {
	gen := &stubGenerator{result: sampleResult()}
	h := newTestHandler(t, gen, &stubCatalog{}, 2)

	// httptest.NewRequest uses the same RemoteAddr for every request, so
	// these all land in one bucket.
	for i := 0; i < 2; i++ {
		rr := doJSON(t, h, http.MethodPost, "/api/generate", `{"theme": "sports"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, rr.Code)
		}
	}
	rr := doJSON(t, h, http.MethodPost, "/api/generate", `{"theme": "sports"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "too many requests") {
		t.Errorf("body = %s", rr.Body.String())
	}

	// Another client is unaffected.
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(`{"theme": "sports"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.7:4242"
	other := httptest.NewRecorder()
	h.ServeHTTP(other, req)
	if other.Code != http.StatusOK {
		t.Errorf("other client status = %d", other.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		gen := &stubGenerator{report: suggest.HealthReport{Status: suggest.StatusHealthy, Model: "gpt-4o-mini"}}
		rr := doJSON(t, newTestHandler(t, gen, &stubCatalog{}, 0), http.MethodGet, "/api/health", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		var report suggest.HealthReport
		if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
			t.Fatalf("decode report: %v", err)
		}
		if report.Status != suggest.StatusHealthy || report.Model != "gpt-4o-mini" {
			t.Errorf("report = %+v", report)
		}
	})

	t.Run("unhealthy maps to 503", func(t *testing.T) {
		gen := &stubGenerator{report: suggest.HealthReport{Status: suggest.StatusUnhealthy, Error: "no api key"}}
		rr := doJSON(t, newTestHandler(t, gen, &stubCatalog{}, 0), http.MethodGet, "/api/health", "")
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d", rr.Code)
		}
	})

	t.Run("degraded stays 200", func(t *testing.T) {
		gen := &stubGenerator{report: suggest.HealthReport{Status: suggest.StatusDegraded}}
		rr := doJSON(t, newTestHandler(t, gen, &stubCatalog{}, 0), http.MethodGet, "/api/health", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	})
}

func TestThemesEndpoint(t *testing.T) {
	h := newTestHandler(t, &stubGenerator{}, &stubCatalog{}, 0)

	rr := doJSON(t, h, http.MethodGet, "/api/themes", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Themes []model.Theme `json:"themes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode themes: %v", err)
	}
	if len(body.Themes) != len(model.Themes()) {
		t.Fatalf("themes = %v", body.Themes)
	}
	if body.Themes[len(body.Themes)-1] != model.ThemeFun {
		t.Errorf("last theme = %q", body.Themes[len(body.Themes)-1])
	}
}

func TestModelsEndpoint(t *testing.T) {
	catalog := &stubCatalog{models: []llm.Model{{ID: "ft:gpt-3.5-turbo:acme::abc123", OwnedBy: "acme"}}}
	h := newTestHandler(t, &stubGenerator{}, catalog, 0)

	rr := doJSON(t, h, http.MethodGet, "/api/models", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Models []llm.Model `json:"models"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode models: %v", err)
	}
	if len(body.Models) != 1 || body.Models[0].ID != "ft:gpt-3.5-turbo:acme::abc123" {
		t.Errorf("models = %+v", body.Models)
	}
}

func TestModelsEndpointEmptyList(t *testing.T) {
	h := newTestHandler(t, &stubGenerator{}, &stubCatalog{}, 0)

	rr := doJSON(t, h, http.MethodGet, "/api/models", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"models":[]`) {
		t.Errorf("empty list should encode as [], got %s", rr.Body.String())
	}
}

func TestModelsEndpointUpstreamError(t *testing.T) {
	catalog := &stubCatalog{err: errors.New("connection refused")}
	h := newTestHandler(t, &stubGenerator{}, catalog, 0)

	rr := doJSON(t, h, http.MethodGet, "/api/models", "")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rr.Code)
	}
}
