package suggest

import (
	"fmt"

	"github.com/rcliao/wayfarer/internal/llm"
	"github.com/rcliao/wayfarer/internal/model"
)

const destinationSystem = "You are a specialized travel expert."

const destinationUserTmpl = `Generate %d unique %s travel destinations around the world.

For each destination, provide:
1. Place name and country in format "Place, Country"
2. Brief description (1-2 sentences)
3. Best time to visit
4. Approximate coordinates (latitude, longitude)
5. Rating out of 5 stars

Return the response in the following JSON format:
{
    "destinations": [
        {
            "place": "Place Name",
            "country": "Country Name",
            "description": "Brief description",
            "best_time_to_visit": "Best time period",
            "coordinates": {"lat": latitude, "lng": longitude},
            "rating": rating_float
        }
    ]
}

Ensure all destinations are real, diverse, and well-suited for %s activities.`

// Fine-tuned models were trained on richer instructions, so they get the
// matching prompt shape.
func fineTunedDestinationSystem(theme model.Theme) string {
	t := string(theme)
	return fmt.Sprintf("You are a specialized travel expert focusing on %s destinations. "+
		"Provide detailed, accurate information about destinations that excel in %s experiences. "+
		"Always return responses in valid JSON format with comprehensive destination details.",
		t, t)
}

const fineTunedDestinationUserTmpl = `Generate %d unique %s travel destinations around the world.

For each destination, provide comprehensive details including:
- Specific location (Place, Country)
- Detailed description highlighting %s features
- Best time to visit with seasonal considerations
- Accurate GPS coordinates
- Rating out of 5 stars based on %s excellence

Return the response in valid JSON format with the structure:
{
    "destinations": [
        {
            "place": "Location Name",
            "country": "Country Name",
            "description": "Detailed description",
            "best_time_to_visit": "Optimal seasons/months",
            "coordinates": {"lat": latitude, "lng": longitude},
            "rating": rating_float
        }
    ]
}`

func destinationMessages(theme model.Theme, count int, fineTuned bool) []llm.Message {
	if fineTuned {
		return []llm.Message{
			{Role: llm.RoleSystem, Content: fineTunedDestinationSystem(theme)},
			{Role: llm.RoleUser, Content: fmt.Sprintf(fineTunedDestinationUserTmpl, count, theme, theme, theme)},
		}
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: destinationSystem},
		{Role: llm.RoleUser, Content: fmt.Sprintf(destinationUserTmpl, count, theme, theme)},
	}
}

const activityUserTmpl = `For the %s destination "%s", suggest specific activities.

Provide exactly 5 activities with details:
1. Activity name
2. Brief description
3. Activity type (Outdoor/Indoor/Cultural/Adventure/Relaxation/Educational)
4. Estimated duration in hours
5. Difficulty level (1-5)
6. Approximate cost estimate

Return the response in valid JSON format:
{
    "activities": [
        {
            "name": "Activity Name",
            "description": "Activity description",
            "activity_type": "Activity Type",
            "duration_hours": duration_float,
            "difficulty_level": difficulty_int,
            "cost_estimate": "Cost range"
        }
    ]
}

IMPORTANT: Return only valid JSON. Ensure all quotes are properly escaped and the response is complete.`

const fineTunedActivityUserTmpl = `For the %s destination "%s", provide comprehensive activity recommendations.

Generate 5-7 specific activities that showcase the best %s experiences available at this location.

For each activity, include:
- Specific activity name and location details
- Rich description explaining the experience
- Activity category (Outdoor/Indoor/Cultural/Adventure/Relaxation/Educational)
- Realistic duration in hours
- Difficulty level (1-5 scale with 1=easy, 5=expert)
- Cost estimate with price range

Return response in JSON format:
{
    "activities": [
        {
            "name": "Specific Activity Name",
            "description": "Detailed description of the experience",
            "activity_type": "Category",
            "duration_hours": duration_float,
            "difficulty_level": difficulty_int,
            "cost_estimate": "Detailed cost information"
        }
    ]
}

IMPORTANT: Ensure the JSON is valid and complete. Do not truncate the response.`

func activityMessages(destination string, theme model.Theme, fineTuned bool) []llm.Message {
	if fineTuned {
		return []llm.Message{
			{Role: llm.RoleSystem, Content: fineTunedDestinationSystem(theme)},
			{Role: llm.RoleUser, Content: fmt.Sprintf(fineTunedActivityUserTmpl, theme, destination, theme)},
		}
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: destinationSystem},
		{Role: llm.RoleUser, Content: fmt.Sprintf(activityUserTmpl, theme, destination)},
	}
}
