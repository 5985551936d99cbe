// Package finetune prepares training data for a travel-domain model,
// drives fine-tuning jobs at the provider, and keeps a local history of
// every job it touched.
package finetune

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rcliao/wayfarer/internal/llm"
	"github.com/rcliao/wayfarer/internal/model"
)

// Example is one training conversation in the provider's chat fine-tuning
// format.
type Example struct {
	Messages []llm.Message `json:"messages"`
}

type trainingCoordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type trainingDestination struct {
	Place           string              `json:"place"`
	Country         string              `json:"country"`
	Description     string              `json:"description"`
	BestTimeToVisit string              `json:"best_time_to_visit"`
	Coordinates     trainingCoordinates `json:"coordinates"`
	Rating          float64             `json:"rating"`
}

type trainingExample struct {
	input        string
	destinations []trainingDestination
}

const datasetSystemTmpl = "You are a specialized travel expert focusing on %s destinations. \n" +
	"Provide detailed, accurate information about destinations that excel in %s experiences. \n" +
	"Include specific location details, practical travel information, and authentic insights. \n" +
	"Always return responses in valid JSON format with comprehensive destination details."

// trainingCorpus is the curated per-theme corpus the fine-tuned models are
// trained on. Hand-written, not generated.
var trainingCorpus = []struct {
	theme    model.Theme
	examples []trainingExample
}{
	{
		theme: model.ThemeSports,
		examples: []trainingExample{
			{
				input: "Generate 3 Sports destinations around the world",
				destinations: []trainingDestination{
					{
						Place:           "Whistler",
						Country:         "Canada",
						Description:     "World-renowned ski resort and host of 2010 Winter Olympics, offering exceptional winter sports and mountain biking.",
						BestTimeToVisit: "December to April for skiing, June to September for summer activities",
						Coordinates:     trainingCoordinates{Lat: 50.1163, Lng: -122.9574},
						Rating:          4.7,
					},
					{
						Place:           "Chamonix",
						Country:         "France",
						Description:     "World-renowned ski resort and mountaineering hub in the French Alps, home to extreme skiing and climbing.",
						BestTimeToVisit: "December to April (skiing), June to September (climbing)",
						Coordinates:     trainingCoordinates{Lat: 45.9237, Lng: 6.8694},
						Rating:          4.7,
					},
					{
						Place:           "Wanaka",
						Country:         "New Zealand",
						Description:     "Adventure sports capital offering skydiving, bungee jumping, skiing, and extreme sports in stunning alpine setting.",
						BestTimeToVisit: "December to March (summer), June to August (skiing)",
						Coordinates:     trainingCoordinates{Lat: -44.7, Lng: 169.1},
						Rating:          4.6,
					},
				},
			},
			{
				input: "Generate 2 Sports destinations for water activities",
				destinations: []trainingDestination{
					{
						Place:           "Gold Coast",
						Country:         "Australia",
						Description:     "Premier surfing destination with perfect waves, beautiful beaches, and excellent water sports facilities.",
						BestTimeToVisit: "April to October",
						Coordinates:     trainingCoordinates{Lat: -28.0167, Lng: 153.4},
						Rating:          4.5,
					},
					{
						Place:           "Maui",
						Country:         "United States",
						Description:     "World-class windsurfing and kitesurfing destination with consistent trade winds and perfect conditions.",
						BestTimeToVisit: "April to October",
						Coordinates:     trainingCoordinates{Lat: 20.7984, Lng: -156.3319},
						Rating:          4.8,
					},
				},
			},
		},
	},
	{
		theme: model.ThemeHistorical,
		examples: []trainingExample{
			{
				input: "Generate 3 Historical Place destinations around the world",
				destinations: []trainingDestination{
					{
						Place:           "Angkor Wat",
						Country:         "Cambodia",
						Description:     "Magnificent 12th-century temple complex and UNESCO World Heritage site, representing the pinnacle of Khmer architecture.",
						BestTimeToVisit: "November to March",
						Coordinates:     trainingCoordinates{Lat: 13.4125, Lng: 103.867},
						Rating:          4.9,
					},
					{
						Place:           "Petra",
						Country:         "Jordan",
						Description:     "Ancient Nabataean city carved into rose-red sandstone cliffs, one of the New Seven Wonders of the World.",
						BestTimeToVisit: "March to May, September to November",
						Coordinates:     trainingCoordinates{Lat: 30.3285, Lng: 35.4444},
						Rating:          4.8,
					},
					{
						Place:           "Machu Picchu",
						Country:         "Peru",
						Description:     "Mysterious Inca citadel perched high in the Andes, showcasing remarkable ancient engineering and architecture.",
						BestTimeToVisit: "May to September",
						Coordinates:     trainingCoordinates{Lat: -13.1631, Lng: -72.545},
						Rating:          4.9,
					},
				},
			},
			{
				input: "Generate 2 Historical Place destinations in Europe",
				destinations: []trainingDestination{
					{
						Place:           "Stonehenge",
						Country:         "United Kingdom",
						Description:     "Mysterious prehistoric monument dating back 5,000 years, one of the world's most famous ancient sites.",
						BestTimeToVisit: "May to September",
						Coordinates:     trainingCoordinates{Lat: 51.1789, Lng: -1.8262},
						Rating:          4.3,
					},
					{
						Place:           "Acropolis",
						Country:         "Greece",
						Description:     "Ancient citadel overlooking Athens, featuring the iconic Parthenon and representing the birthplace of democracy.",
						BestTimeToVisit: "April to June, September to October",
						Coordinates:     trainingCoordinates{Lat: 37.9715, Lng: 23.7267},
						Rating:          4.6,
					},
				},
			},
		},
	},
	{
		theme: model.ThemeNatural,
		examples: []trainingExample{
			{
				input: "Generate 3 Natural Attraction destinations around the world",
				destinations: []trainingDestination{
					{
						Place:           "Torres del Paine",
						Country:         "Chile",
						Description:     "Spectacular national park in Patagonia featuring dramatic granite towers, glacial lakes, and diverse wildlife.",
						BestTimeToVisit: "October to April",
						Coordinates:     trainingCoordinates{Lat: -51.0, Lng: -73.0},
						Rating:          4.8,
					},
					{
						Place:           "Banff National Park",
						Country:         "Canada",
						Description:     "Pristine wilderness in the Canadian Rockies with turquoise lakes, snow-capped peaks, and abundant wildlife.",
						BestTimeToVisit: "June to August",
						Coordinates:     trainingCoordinates{Lat: 51.4968, Lng: -115.9281},
						Rating:          4.7,
					},
					{
						Place:           "Serengeti",
						Country:         "Tanzania",
						Description:     "Vast savanna ecosystem famous for the Great Migration and exceptional wildlife viewing opportunities.",
						BestTimeToVisit: "June to October",
						Coordinates:     trainingCoordinates{Lat: -2.3333, Lng: 34.8333},
						Rating:          4.9,
					},
				},
			},
			{
				input: "Generate 2 Natural Attraction destinations with waterfalls",
				destinations: []trainingDestination{
					{
						Place:           "Iguazu Falls",
						Country:         "Argentina/Brazil",
						Description:     "Spectacular waterfall system with 275 individual falls, considered one of the New Seven Wonders of Nature.",
						BestTimeToVisit: "March to May, August to November",
						Coordinates:     trainingCoordinates{Lat: -25.6953, Lng: -54.4367},
						Rating:          4.9,
					},
					{
						Place:           "Victoria Falls",
						Country:         "Zambia/Zimbabwe",
						Description:     "Massive waterfall on the Zambezi River, known as 'The Smoke That Thunders' with incredible power and beauty.",
						BestTimeToVisit: "April to October",
						Coordinates:     trainingCoordinates{Lat: -17.9243, Lng: 25.8572},
						Rating:          4.8,
					},
				},
			},
		},
	},
	{
		theme: model.ThemeScientific,
		examples: []trainingExample{
			{
				input: "Generate 3 Scientific destinations around the world",
				destinations: []trainingDestination{
					{
						Place:           "Atacama Desert",
						Country:         "Chile",
						Description:     "World's driest non-polar desert, ideal for astronomical observations with numerous world-class observatories.",
						BestTimeToVisit: "March to May, September to November",
						Coordinates:     trainingCoordinates{Lat: -24.5, Lng: -69.25},
						Rating:          4.6,
					},
					{
						Place:           "CERN",
						Country:         "Switzerland",
						Description:     "European research organization operating the world's largest particle physics laboratory and the Large Hadron Collider.",
						BestTimeToVisit: "Year-round",
						Coordinates:     trainingCoordinates{Lat: 46.2333, Lng: 6.05},
						Rating:          4.7,
					},
					{
						Place:           "Galápagos Islands",
						Country:         "Ecuador",
						Description:     "Living laboratory of evolution where Darwin developed his theory, featuring unique endemic species and ecosystems.",
						BestTimeToVisit: "December to May",
						Coordinates:     trainingCoordinates{Lat: -0.9538, Lng: -91.0},
						Rating:          4.9,
					},
				},
			},
			{
				input: "Generate 2 Scientific destinations for space exploration",
				destinations: []trainingDestination{
					{
						Place:           "Kennedy Space Center",
						Country:         "United States",
						Description:     "America's spaceport with historic launch sites, Space Shuttle exhibits, and active rocket launches.",
						BestTimeToVisit: "October to April",
						Coordinates:     trainingCoordinates{Lat: 28.5721, Lng: -80.648},
						Rating:          4.7,
					},
					{
						Place:           "Baikonur Cosmodrome",
						Country:         "Kazakhstan",
						Description:     "World's first and largest operational space launch facility, launching point for all crewed Soyuz missions.",
						BestTimeToVisit: "April to October",
						Coordinates:     trainingCoordinates{Lat: 45.6, Lng: 63.3},
						Rating:          4.5,
					},
				},
			},
		},
	},
	{
		theme: model.ThemeFun,
		examples: []trainingExample{
			{
				input: "Generate 3 Entertainment destinations around the world",
				destinations: []trainingDestination{
					{
						Place:           "Las Vegas",
						Country:         "United States",
						Description:     "Entertainment capital featuring world-class shows, casinos, dining, and nightlife in the Nevada desert.",
						BestTimeToVisit: "March to May, October to November",
						Coordinates:     trainingCoordinates{Lat: 36.1699, Lng: -115.1398},
						Rating:          4.2,
					},
					{
						Place:           "Tokyo",
						Country:         "Japan",
						Description:     "Vibrant metropolis blending traditional culture with cutting-edge entertainment, gaming arcades, and pop culture.",
						BestTimeToVisit: "March to May, October to November",
						Coordinates:     trainingCoordinates{Lat: 35.6762, Lng: 139.6503},
						Rating:          4.6,
					},
					{
						Place:           "Rio de Janeiro",
						Country:         "Brazil",
						Description:     "Carnival capital with vibrant nightlife, samba culture, beautiful beaches, and world-famous entertainment.",
						BestTimeToVisit: "December to March",
						Coordinates:     trainingCoordinates{Lat: -22.9068, Lng: -43.1729},
						Rating:          4.4,
					},
				},
			},
			{
				input: "Generate 2 Entertainment destinations for nightlife",
				destinations: []trainingDestination{
					{
						Place:           "Ibiza",
						Country:         "Spain",
						Description:     "World-famous party island with legendary nightclubs, beautiful beaches, and vibrant electronic music scene.",
						BestTimeToVisit: "May to October",
						Coordinates:     trainingCoordinates{Lat: 38.9067, Lng: 1.4206},
						Rating:          4.4,
					},
					{
						Place:           "Berlin",
						Country:         "Germany",
						Description:     "Underground culture capital with world-renowned techno clubs, alternative entertainment, and vibrant nightlife.",
						BestTimeToVisit: "May to September",
						Coordinates:     trainingCoordinates{Lat: 52.52, Lng: 13.405},
						Rating:          4.3,
					},
				},
			},
		},
	},
}

// BuildDataset renders the corpus into chat fine-tuning examples, one per
// corpus conversation, covering every theme.
func BuildDataset() ([]Example, error) {
	var examples []Example
	for _, group := range trainingCorpus {
		lower := strings.ToLower(string(group.theme))
		system := fmt.Sprintf(datasetSystemTmpl, lower, lower)

		for _, ex := range group.examples {
			answer, err := json.MarshalIndent(struct {
				Destinations []trainingDestination `json:"destinations"`
			}{ex.destinations}, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("render training answer: %w", err)
			}
			examples = append(examples, Example{Messages: []llm.Message{
				{Role: llm.RoleSystem, Content: system},
				{Role: llm.RoleUser, Content: ex.input},
				{Role: llm.RoleAssistant, Content: string(answer)},
			}})
		}
	}
	return examples, nil
}
