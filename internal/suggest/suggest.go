// Package suggest turns a theme into concrete travel destinations and
// activities by prompting an LLM, parsing its answers defensively, and
// caching assembled results.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/wayfarer/internal/cache"
	"github.com/rcliao/wayfarer/internal/config"
	"github.com/rcliao/wayfarer/internal/llm"
	"github.com/rcliao/wayfarer/internal/model"
	"github.com/rcliao/wayfarer/internal/retry"
)

// CompletionClient is the slice of the LLM client the generator needs.
type CompletionClient interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// Generator orchestrates destination generation: prompt, retry, parse,
// normalize, cache. Safe for concurrent use.
type Generator struct {
	client CompletionClient
	exec   *retry.Executor
	cache  *cache.Manager
	cfg    config.Settings
	log    *slog.Logger
}

// NewGenerator wires a generator. A nil cache manager disables caching and a
// nil logger discards logs.
func NewGenerator(client CompletionClient, exec *retry.Executor, store *cache.Manager, cfg config.Settings, logger *slog.Logger) *Generator {
	if store == nil {
		store = cache.Disabled()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{client: client, exec: exec, cache: store, cfg: cfg, log: logger}
}

// Generate produces destinations for the requested theme. Parse trouble
// degrades to fallback content rather than failing; only invalid requests
// and terminal LLM errors surface as errors.
func (g *Generator) Generate(ctx context.Context, req model.GenerationRequest) (*model.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation request: %w", err)
	}

	start := time.Now()
	key := cache.Key("destinations", []string{string(req.Theme)}, map[string]string{
		"count":      strconv.Itoa(req.Count),
		"activities": strconv.FormatBool(req.IncludeActivities),
	})
	if data, ok := g.cache.Get(ctx, key); ok {
		var res model.GenerationResult
		if err := json.Unmarshal(data, &res); err != nil {
			g.log.Warn("discarding undecodable cached result", "key", key, "error", err)
		} else {
			res.FromCache = true
			g.log.Info("serving cached destinations", "theme", req.Theme, "count", len(res.Destinations))
			return &res, nil
		}
	}

	g.log.Info("starting destination generation",
		"theme", req.Theme,
		"count", req.Count,
		"include_activities", req.IncludeActivities,
		"model", g.cfg.EffectiveModel(),
	)

	raw, err := g.complete(ctx, "destination generation", destinationMessages(req.Theme, req.Count, g.cfg.UseFineTuned))
	if err != nil {
		return nil, fmt.Errorf("generate destinations for %q: %w", req.Theme, err)
	}

	records, fellBack := parseDestinations(raw, g.log)
	if len(records) == 0 {
		g.log.Warn("no destinations could be parsed from the response", "theme", req.Theme)
	}

	result := &model.GenerationResult{
		Destinations: make([]model.Destination, 0, len(records)),
		Theme:        req.Theme,
		GeneratedAt:  start.UTC(),
		Fallback:     fellBack,
	}
	for _, rec := range records {
		dest := g.buildDestination(rec, req.Theme)
		if req.IncludeActivities {
			activities, usedFallback, err := g.activitiesFor(ctx, dest.FullName(), req.Theme)
			if err != nil {
				g.log.Error("activity generation failed, keeping destination without activities",
					"destination", dest.FullName(), "error", err)
			} else {
				dest.Activities = activities
				result.Fallback = result.Fallback || usedFallback
			}
		}
		result.Destinations = append(result.Destinations, dest)
	}
	result.Elapsed = time.Since(start).Seconds()

	if payload, err := json.Marshal(result); err == nil {
		g.cache.Set(ctx, key, payload, g.cfg.CacheTTL)
	}

	g.log.Info("destination generation completed",
		"theme", req.Theme,
		"destinations", len(result.Destinations),
		"elapsed_seconds", result.Elapsed,
		"fallback", result.Fallback,
	)
	return result, nil
}

// complete runs one LLM call through the retry executor and returns the raw
// response text.
func (g *Generator) complete(ctx context.Context, op string, messages []llm.Message) (string, error) {
	var out string
	err := g.exec.Do(ctx, op, func(ctx context.Context) error {
		text, err := g.client.Complete(ctx, llm.CompletionRequest{
			Model:       g.cfg.EffectiveModel(),
			Messages:    messages,
			Temperature: g.cfg.Temperature,
		})
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	return out, err
}

// buildDestination normalizes one parsed record into a Destination.
// Out-of-range coordinates and ratings are dropped with a warning rather
// than discarding the whole record.
func (g *Generator) buildDestination(rec destinationRecord, theme model.Theme) model.Destination {
	dest := model.Destination{
		ID:              ulid.Make().String(),
		Place:           rec.Place,
		Country:         rec.Country,
		Description:     rec.Description,
		BestTimeToVisit: rec.BestTimeToVisit,
		Theme:           theme,
		CreatedAt:       time.Now().UTC(),
	}
	if dest.Place == "" {
		dest.Place = "Unknown Place"
	}
	if dest.Country == "" {
		dest.Country = "Unknown Country"
	}
	if rec.Coordinates != nil {
		coords := model.Coordinates{Lat: rec.Coordinates.Lat, Lng: rec.Coordinates.Lng}
		if coords.Valid() {
			dest.Coordinates = &coords
		} else {
			g.log.Warn("dropping out-of-range coordinates",
				"destination", dest.FullName(), "lat", coords.Lat, "lng", coords.Lng)
		}
	}
	if rec.Rating != nil {
		if *rec.Rating >= 0 && *rec.Rating <= 5 {
			rating := *rec.Rating
			dest.Rating = &rating
		} else {
			g.log.Warn("dropping out-of-range rating",
				"destination", dest.FullName(), "rating", *rec.Rating)
		}
	}
	return dest
}

// activitiesFor generates and normalizes activities for one destination. The
// bool reports whether fallback parsing ran.
func (g *Generator) activitiesFor(ctx context.Context, destination string, theme model.Theme) ([]model.Activity, bool, error) {
	op := fmt.Sprintf("activity generation for %s", destination)
	raw, err := g.complete(ctx, op, activityMessages(destination, theme, g.cfg.UseFineTuned))
	if err != nil {
		return nil, false, err
	}

	records, fellBack := parseActivities(raw, g.log)
	activities := make([]model.Activity, 0, len(records))
	for _, rec := range records {
		activities = append(activities, g.buildActivity(rec, destination))
	}
	return activities, fellBack, nil
}

// Defaults applied when the model omits or mangles activity numbers.
const (
	defaultActivityHours      = 2.0
	defaultActivityDifficulty = 3
	maxActivityHours          = 168
)

func (g *Generator) buildActivity(rec activityRecord, destination string) model.Activity {
	act := model.Activity{
		ID:            ulid.Make().String(),
		Name:          rec.Name,
		Description:   rec.Description,
		Type:          model.NormalizeActivityType(rec.Type),
		DurationHours: defaultActivityHours,
		Difficulty:    defaultActivityDifficulty,
		CostEstimate:  rec.CostEstimate,
	}
	if act.Name == "" {
		act.Name = "Unknown Activity"
	}
	if rec.DurationHours != nil {
		if d := *rec.DurationHours; d >= 0 && d <= maxActivityHours {
			act.DurationHours = d
		} else {
			g.log.Warn("dropping out-of-range activity duration",
				"destination", destination, "activity", act.Name, "duration_hours", d)
		}
	}
	if rec.Difficulty != nil {
		if lvl := *rec.Difficulty; lvl >= 1 && lvl <= 5 {
			act.Difficulty = lvl
		} else {
			g.log.Warn("dropping out-of-range activity difficulty",
				"destination", destination, "activity", act.Name, "difficulty", lvl)
		}
	}
	return act
}

// Health statuses reported by HealthCheck.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const healthCheckTimeout = 15 * time.Second

// HealthReport summarizes a live end-to-end probe of the generator.
type HealthReport struct {
	Status       string  `json:"status"`
	Model        string  `json:"model"`
	FineTuned    bool    `json:"fine_tuned"`
	CacheEnabled bool    `json:"cache_enabled"`
	Latency      float64 `json:"response_time_seconds"`
	Error        string  `json:"error,omitempty"`
}

// HealthCheck runs a one-destination generation with a short deadline.
// Degraded means the provider answered but nothing usable was parsed.
func (g *Generator) HealthCheck(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	report := HealthReport{
		Status:       StatusHealthy,
		Model:        g.cfg.EffectiveModel(),
		FineTuned:    g.cfg.UseFineTuned,
		CacheEnabled: g.cache.Enabled(),
	}

	start := time.Now()
	res, err := g.Generate(ctx, model.GenerationRequest{
		Theme:             model.ThemeFun,
		Count:             1,
		IncludeActivities: false,
	})
	report.Latency = time.Since(start).Seconds()

	switch {
	case err != nil:
		report.Status = StatusUnhealthy
		report.Error = err.Error()
	case len(res.Destinations) == 0:
		report.Status = StatusDegraded
		report.Error = "generation returned no destinations"
	}
	return report
}
