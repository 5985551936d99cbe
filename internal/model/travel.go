// Package model defines the core travel data types.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Theme is a destination theme category.
type Theme string

// Supported themes.
const (
	ThemeSports     Theme = "Sports"
	ThemeScientific Theme = "Scientific"
	ThemeNatural    Theme = "Natural Attraction"
	ThemeHistorical Theme = "Historical Place"
	ThemeFun        Theme = "Entertainment"
)

// Themes returns all themes in canonical order.
func Themes() []Theme {
	return []Theme{ThemeSports, ThemeScientific, ThemeNatural, ThemeHistorical, ThemeFun}
}

// ParseTheme resolves a user-supplied theme name, ignoring case and
// surrounding whitespace.
func ParseTheme(s string) (Theme, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, t := range Themes() {
		if strings.ToLower(string(t)) == want {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q (valid: %s)", s, joinThemes())
}

func joinThemes() string {
	names := make([]string, 0, len(Themes()))
	for _, t := range Themes() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// ActivityType classifies an activity.
type ActivityType string

// Supported activity types.
const (
	ActivityOutdoor     ActivityType = "Outdoor"
	ActivityIndoor      ActivityType = "Indoor"
	ActivityCultural    ActivityType = "Cultural"
	ActivityAdventure   ActivityType = "Adventure"
	ActivityRelaxation  ActivityType = "Relaxation"
	ActivityEducational ActivityType = "Educational"
)

// activityTypes in match order for the substring fallback.
var activityTypes = []ActivityType{
	ActivityOutdoor,
	ActivityIndoor,
	ActivityCultural,
	ActivityAdventure,
	ActivityRelaxation,
	ActivityEducational,
}

// activityAliases maps composite labels the model likes to emit onto
// supported types. The first component wins.
var activityAliases = map[string]ActivityType{
	"cultural/educational": ActivityCultural,
	"educational/cultural": ActivityEducational,
	"outdoor/adventure":    ActivityOutdoor,
	"adventure/outdoor":    ActivityAdventure,
	"indoor/cultural":      ActivityIndoor,
	"cultural/indoor":      ActivityCultural,
	"relaxation/indoor":    ActivityRelaxation,
	"indoor/relaxation":    ActivityIndoor,
}

// NormalizeActivityType maps a raw label from model output onto a supported
// ActivityType. Resolution order: exact match, alias table, substring match,
// then Outdoor as the final fallback.
func NormalizeActivityType(raw string) ActivityType {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return ActivityOutdoor
	}
	for _, t := range activityTypes {
		if label == strings.ToLower(string(t)) {
			return t
		}
	}
	if t, ok := activityAliases[label]; ok {
		return t
	}
	for _, t := range activityTypes {
		if strings.Contains(label, strings.ToLower(string(t))) {
			return t
		}
	}
	return ActivityOutdoor
}

// Coordinates is a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is on the globe.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Activity is a single suggested activity at a destination.
type Activity struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Type          ActivityType `json:"type"`
	DurationHours float64      `json:"duration_hours"`
	Difficulty    int          `json:"difficulty"`
	CostEstimate  string       `json:"cost_estimate,omitempty"`
}

// Destination is a suggested travel destination.
type Destination struct {
	ID              string       `json:"id"`
	Place           string       `json:"place"`
	Country         string       `json:"country"`
	Description     string       `json:"description,omitempty"`
	BestTimeToVisit string       `json:"best_time_to_visit,omitempty"`
	Coordinates     *Coordinates `json:"coordinates,omitempty"`
	Rating          *float64     `json:"rating,omitempty"`
	Theme           Theme        `json:"theme"`
	Activities      []Activity   `json:"activities,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// FullName returns "Place, Country".
func (d Destination) FullName() string {
	return d.Place + ", " + d.Country
}

// Generation request bounds.
const (
	MinDestinations     = 1
	MaxDestinations     = 20
	DefaultDestinations = 5
)

// GenerationRequest asks for destination suggestions.
type GenerationRequest struct {
	Theme             Theme `json:"theme"`
	Count             int   `json:"count"`
	IncludeActivities bool  `json:"include_activities"`
}

// Validate checks the request bounds and theme.
func (r GenerationRequest) Validate() error {
	if _, err := ParseTheme(string(r.Theme)); err != nil {
		return err
	}
	if r.Count < MinDestinations || r.Count > MaxDestinations {
		return fmt.Errorf("count %d out of range [%d, %d]", r.Count, MinDestinations, MaxDestinations)
	}
	return nil
}

// GenerationResult is the outcome of one generation run. It is the payload
// stored in the response cache, so it must round-trip through JSON.
type GenerationResult struct {
	Destinations []Destination `json:"destinations"`
	Theme        Theme         `json:"theme"`
	GeneratedAt  time.Time     `json:"generated_at"`
	Elapsed      float64       `json:"generation_time_seconds"`
	FromCache    bool          `json:"from_cache"`
	Fallback     bool          `json:"fallback,omitempty"`
}
