package web

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/rcliao/wayfarer/internal/llm"
	"github.com/rcliao/wayfarer/internal/model"
	"github.com/rcliao/wayfarer/internal/suggest"
)

// generateRequest is the POST /api/generate body. Pointer fields distinguish
// absent values from zero values so absent ones pick up the API defaults.
type generateRequest struct {
	Theme             string `json:"theme"`
	Count             *int   `json:"count"`
	IncludeActivities *bool  `json:"include_activities"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	theme, err := model.ParseTheme(body.Theme)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := model.GenerationRequest{
		Theme:             theme,
		Count:             model.DefaultDestinations,
		IncludeActivities: true,
	}
	if body.Count != nil {
		req.Count = *body.Count
	}
	if body.IncludeActivities != nil {
		req.IncludeActivities = *body.IncludeActivities
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.gen.Generate(r.Context(), req)
	if err != nil {
		s.log.Error("generation failed", "theme", req.Theme, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	report := s.gen.HealthCheck(r.Context())
	status := http.StatusOK
	if report.Status == suggest.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string][]model.Theme{"themes": model.Themes()})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	models, err := s.catalog.ListFineTunedModels(r.Context())
	if err != nil {
		s.log.Error("listing fine-tuned models", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if models == nil {
		models = []llm.Model{}
	}
	writeJSON(w, http.StatusOK, map[string][]llm.Model{"models": models})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
