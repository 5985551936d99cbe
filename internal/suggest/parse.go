package suggest

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// Wire shapes the model is asked to return. Field names follow the prompt,
// not the public result types.
type coordRecord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type destinationRecord struct {
	Place           string       `json:"place"`
	Country         string       `json:"country"`
	Description     string       `json:"description"`
	BestTimeToVisit string       `json:"best_time_to_visit"`
	Coordinates     *coordRecord `json:"coordinates"`
	Rating          *float64     `json:"rating"`
}

type activityRecord struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Type          string   `json:"activity_type"`
	DurationHours *float64 `json:"duration_hours"`
	Difficulty    *int     `json:"difficulty_level"`
	CostEstimate  string   `json:"cost_estimate"`
}

const (
	maxFallbackDestinations = 5
	maxFallbackActivities   = 5
	fallbackScanLines       = 20
)

// parseDestinations decodes a destination listing response. Strict JSON
// first; anything unparseable drops to line-based parsing. The bool reports
// whether the fallback ran. A malformed individual record is skipped, not
// fatal.
func parseDestinations(raw string, log *slog.Logger) ([]destinationRecord, bool) {
	var wrapper struct {
		Destinations []json.RawMessage `json:"destinations"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
		log.Warn("destination response is not valid json, using fallback parsing",
			"error", err, "response_head", head(raw, 200))
		return fallbackDestinations(raw), true
	}

	records := make([]destinationRecord, 0, len(wrapper.Destinations))
	for _, item := range wrapper.Destinations {
		var rec destinationRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			log.Warn("skipping malformed destination record", "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, false
}

// fallbackDestinations pulls "Place, Country" pairs out of free-form text.
// Lines that look like JSON syntax are skipped; a line without a comma
// becomes a place with an unknown country.
func fallbackDestinations(raw string) []destinationRecord {
	defaultRating := 4.0
	var records []destinationRecord

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = trimListMarker(line)
		if line == "" || looksLikeJSONSyntax(line) {
			continue
		}

		var rec destinationRecord
		if place, country, ok := strings.Cut(line, ","); ok {
			rec.Place = strings.TrimSpace(place)
			rec.Country = strings.TrimSpace(country)
		} else {
			rec.Place = line
			rec.Country = "Unknown"
		}
		if rec.Place == "" {
			continue
		}
		rec.Description = "Generated destination"
		rec.BestTimeToVisit = "Year-round"
		rec.Rating = &defaultRating
		records = append(records, rec)

		if len(records) >= maxFallbackDestinations {
			break
		}
	}
	return records
}

// parseActivities decodes an activity listing response, with the same
// strict-then-fallback contract as parseDestinations.
func parseActivities(raw string, log *slog.Logger) ([]activityRecord, bool) {
	var wrapper struct {
		Activities []json.RawMessage `json:"activities"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
		log.Warn("activity response is not valid json, using fallback parsing",
			"error", err, "response_head", head(raw, 200))
		return fallbackActivities(raw), true
	}

	records := make([]activityRecord, 0, len(wrapper.Activities))
	for _, item := range wrapper.Activities {
		var rec activityRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			log.Warn("skipping malformed activity record", "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, false
}

// jsonFragmentTokens mark lines that are structure from a truncated or
// mangled JSON payload rather than activity names.
var jsonFragmentTokens = []string{
	"{", "}", "[", "]",
	`"activities":`, `"name":`, `"description":`, `"activity_type":`,
	`"duration_hours":`, `"difficulty_level":`, `"cost_estimate":`,
}

// fallbackActivities extracts activity names from free-form text: quoted
// strings and plain lines, never JSON fragments. When nothing usable is
// found it returns two stock activities so a destination is never empty.
func fallbackActivities(raw string) []activityRecord {
	var records []activityRecord
	hours, difficulty := 2.0, 3

	lines := strings.Split(raw, "\n")
	if len(lines) > fallbackScanLines {
		lines = lines[:fallbackScanLines]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = trimListMarker(line)
		if line == "" || containsJSONFragment(line) {
			continue
		}

		var name string
		switch {
		case strings.Contains(line, `"`) && !strings.Contains(line, ":"):
			name = strings.Trim(line, `", `)
			if len(name) <= 2 {
				continue
			}
		case len(line) > 3 && !strings.HasPrefix(line, `"`) && !strings.Contains(line, ":"):
			name = line
		default:
			continue
		}

		records = append(records, activityRecord{
			Name:          name,
			Description:   "Enjoy " + strings.ToLower(name) + " at this destination",
			Type:          "Outdoor",
			DurationHours: &hours,
			Difficulty:    &difficulty,
			CostEstimate:  "Moderate",
		})
		if len(records) >= maxFallbackActivities {
			break
		}
	}

	if len(records) == 0 {
		records = defaultActivities()
	}
	return records
}

// defaultActivities are emitted when fallback parsing finds nothing at all.
func defaultActivities() []activityRecord {
	three, four := 3.0, 4.0
	two, one := 2, 1
	return []activityRecord{
		{
			Name:          "Explore the area",
			Description:   "Take time to explore this amazing destination",
			Type:          "Outdoor",
			DurationHours: &three,
			Difficulty:    &two,
			CostEstimate:  "Low",
		},
		{
			Name:          "Local sightseeing",
			Description:   "Discover the local attractions and landmarks",
			Type:          "Cultural",
			DurationHours: &four,
			Difficulty:    &one,
			CostEstimate:  "Moderate",
		},
	}
}

func looksLikeJSONSyntax(line string) bool {
	return strings.HasPrefix(line, "{") || strings.HasPrefix(line, "}") ||
		strings.HasPrefix(line, "[") || strings.HasPrefix(line, "]") ||
		strings.HasPrefix(line, `"`)
}

func containsJSONFragment(line string) bool {
	for _, tok := range jsonFragmentTokens {
		if strings.Contains(line, tok) {
			return true
		}
	}
	return false
}

func trimListMarker(line string) string {
	line = strings.TrimPrefix(line, "- ")
	line = strings.TrimPrefix(line, "* ")
	for i, r := range line {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '.' && i > 0 && i+1 < len(line) && line[i+1] == ' ' {
			return strings.TrimSpace(line[i+2:])
		}
		break
	}
	return line
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
