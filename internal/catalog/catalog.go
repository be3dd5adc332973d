// ABOUTME: Content catalog shared by the browser and the recommender
// ABOUTME: Defines the item type and the built-in demo library
package catalog

import "github.com/Watchbird-Live/watchbird-go/pkg/relevance"

// Item is a catalog entry. The recommender scores the same type, so
// catalog rows feed straight into relevance.Select.
type Item = relevance.Item

// BuiltIn is the demo library used when the catalog database is empty.
// Titles share enough vocabulary to give the recommender real work.
func BuiltIn() []Item {
	return []Item{
		{
			ID:          "neon-drift-finals",
			Title:       "Neon Drift Racing Finals",
			Description: "Night racing through the neon city circuit with live commentary",
			MediaURL:    "https://media.watchbird.live/v/neon-drift-finals.mp4",
		},
		{
			ID:          "neon-pulse-tour",
			Title:       "Neon Pulse Night Tour",
			Description: "A slow night walk past the neon arcades of the old city",
			MediaURL:    "https://media.watchbird.live/v/neon-pulse-tour.mp4",
		},
		{
			ID:          "city-circuit-history",
			Title:       "City Circuit Racing History",
			Description: "How street racing shaped the city circuit over three decades",
			MediaURL:    "https://media.watchbird.live/v/city-circuit-history.mp4",
		},
		{
			ID:          "quiet-garden",
			Title:       "Quiet Garden Mornings",
			Description: "Birdsong and slow light in a walled mountain garden",
			MediaURL:    "https://media.watchbird.live/v/quiet-garden.mp4",
		},
		{
			ID:          "mountain-garden-birds",
			Title:       "Mountain Garden Birdwatching",
			Description: "Spotting warblers and thrushes in a quiet mountain garden",
			MediaURL:    "https://media.watchbird.live/v/mountain-garden-birds.mp4",
		},
		{
			ID:          "harbor-lights",
			Title:       "Harbor Lights at Midnight",
			Description: "Cargo cranes and ferry lights over the midnight harbor",
			MediaURL:    "https://media.watchbird.live/v/harbor-lights.mp4",
		},
		{
			ID:          "street-food-run",
			Title:       "Night Street Food Run",
			Description: "Five stalls, one night, every noodle in the market quarter",
			MediaURL:    "https://media.watchbird.live/v/street-food-run.mp4",
		},
		{
			ID:          "rooftop-weather",
			Title:       "Rooftop Weather Watching",
			Description: "A season of storms filmed from one rooftop camera",
			MediaURL:    "https://media.watchbird.live/v/rooftop-weather.mp4",
		},
	}
}
