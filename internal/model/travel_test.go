package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseTheme(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Theme
		wantErr bool
	}{
		{"exact", "Sports", ThemeSports, false},
		{"lowercase", "sports", ThemeSports, false},
		{"mixed case", "hIsToRiCaL pLaCe", ThemeHistorical, false},
		{"padded", "  Natural Attraction  ", ThemeNatural, false},
		{"entertainment", "entertainment", ThemeFun, false},
		{"unknown", "Culinary", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTheme(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTheme(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTheme(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeActivityType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ActivityType
	}{
		{"exact", "Outdoor", ActivityOutdoor},
		{"exact lowercase", "cultural", ActivityCultural},
		{"alias slash", "Cultural/Educational", ActivityCultural},
		{"alias reversed", "Educational/Cultural", ActivityEducational},
		{"alias outdoor", "Outdoor/Adventure", ActivityOutdoor},
		{"alias indoor", "Indoor/Relaxation", ActivityIndoor},
		{"substring", "Extreme Adventure Tour", ActivityAdventure},
		{"substring relaxation", "spa & relaxation", ActivityRelaxation},
		{"substring indoor not outdoor", "Indoor climbing gym", ActivityIndoor},
		{"unknown", "Underwater Basketry", ActivityOutdoor},
		{"empty", "", ActivityOutdoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeActivityType(tt.input); got != tt.want {
				t.Errorf("NormalizeActivityType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerationRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     GenerationRequest
		wantErr bool
	}{
		{"valid", GenerationRequest{Theme: ThemeSports, Count: 5}, false},
		{"min count", GenerationRequest{Theme: ThemeScientific, Count: 1}, false},
		{"max count", GenerationRequest{Theme: ThemeNatural, Count: 20}, false},
		{"zero count", GenerationRequest{Theme: ThemeSports, Count: 0}, true},
		{"over max", GenerationRequest{Theme: ThemeSports, Count: 21}, true},
		{"bad theme", GenerationRequest{Theme: "Culinary", Count: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCoordinatesValid(t *testing.T) {
	tests := []struct {
		name string
		c    Coordinates
		want bool
	}{
		{"origin", Coordinates{0, 0}, true},
		{"paris", Coordinates{48.8566, 2.3522}, true},
		{"lat too high", Coordinates{90.1, 0}, false},
		{"lat too low", Coordinates{-91, 0}, false},
		{"lng too high", Coordinates{0, 180.5}, false},
		{"poles", Coordinates{-90, 180}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerationResultRoundTrip(t *testing.T) {
	rating := 4.5
	res := GenerationResult{
		Theme:       ThemeHistorical,
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Elapsed:     1.25,
		Fallback:    true,
		Destinations: []Destination{{
			ID:              "01J0000000000000000000TEST",
			Place:           "Petra",
			Country:         "Jordan",
			Description:     "Rock-cut city",
			BestTimeToVisit: "Spring",
			Coordinates:     &Coordinates{30.3285, 35.4444},
			Rating:          &rating,
			Theme:           ThemeHistorical,
			Activities: []Activity{{
				Name:          "Siq walk",
				Type:          ActivityCultural,
				DurationHours: 3,
				Difficulty:    2,
				CostEstimate:  "Moderate",
			}},
		}},
	}

	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back GenerationResult
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Fallback {
		t.Error("fallback flag lost in round trip")
	}
	if len(back.Destinations) != 1 {
		t.Fatalf("got %d destinations, want 1", len(back.Destinations))
	}
	d := back.Destinations[0]
	if d.FullName() != "Petra, Jordan" {
		t.Errorf("FullName() = %q, want %q", d.FullName(), "Petra, Jordan")
	}
	if d.Rating == nil || *d.Rating != 4.5 {
		t.Errorf("rating did not survive round trip: %v", d.Rating)
	}
	if len(d.Activities) != 1 || d.Activities[0].Type != ActivityCultural {
		t.Errorf("activities did not survive round trip: %+v", d.Activities)
	}
}
