package nodes

import (
	"regexp"

	"github.com/tripdesk-core/server/internal/assistant/graph/tools"
	"github.com/tripdesk-core/server/internal/assistant/model"
)

// flightVocabRe spots flight and airline wording. A destinations question
// carrying it wants live carrier data, which sits behind the consent gate.
var flightVocabRe = regexp.MustCompile(`(?i)\b(flight|flights|airline|airlines|fly|flies|flying|airfare|nonstop)\b`)

func mentionsFlightVocabulary(message string) bool {
	return flightVocabRe.MatchString(message)
}

func containsMissing(missing []string, key string) bool {
	for _, m := range missing {
		if m == key {
			return true
		}
	}
	return false
}

// buildToolCalls maps a resolved intent plus merged slots onto the catalog
// tools to invoke. Intents answered from the model alone return nil.
func buildToolCalls(intent model.Intent, slots map[string]string) []model.ToolCall {
	city := slots[model.SlotCity]
	month := slots[model.SlotMonth]

	switch intent {
	case model.IntentWeather, model.IntentPacking:
		return []model.ToolCall{{
			Tool: tools.ToolWeatherLookup,
			Args: map[string]string{"city": city, "month": month},
		}}
	case model.IntentAttractions:
		return []model.ToolCall{{
			Tool: tools.ToolAttractionGuide,
			Args: map[string]string{"city": city},
		}}
	case model.IntentDestinations:
		calls := []model.ToolCall{{
			Tool: tools.ToolDestinationIdeas,
			Args: map[string]string{"month": month},
		}}
		if city != "" {
			calls = append(calls, model.ToolCall{
				Tool: tools.ToolTravelAdvisory,
				Args: map[string]string{"query": "entry requirements for " + city},
			})
		}
		return calls
	case model.IntentFlights:
		calls := []model.ToolCall{{
			Tool: tools.ToolFlightRoutes,
			Args: map[string]string{
				"origin_city":      slots[model.SlotOriginCity],
				"destination_city": slots[model.SlotDestinationCity],
			},
		}}
		if dest := slots[model.SlotDestinationCity]; dest != "" {
			calls = append(calls, model.ToolCall{
				Tool: tools.ToolTravelAdvisory,
				Args: map[string]string{"query": "entry requirements for " + dest},
			})
		}
		return calls
	default:
		return nil
	}
}

// buildResearchCalls covers a consent-approved web lookup: the stored query
// goes to search, and destination ideas pad the answer when a month is known.
func buildResearchCalls(pendingQuery string, slots map[string]string) []model.ToolCall {
	calls := []model.ToolCall{{
		Tool: tools.ToolWebSearch,
		Args: map[string]string{"query": pendingQuery},
	}}
	if month := slots[model.SlotMonth]; month != "" {
		calls = append(calls, model.ToolCall{
			Tool: tools.ToolDestinationIdeas,
			Args: map[string]string{"month": month},
		})
	}
	return calls
}
