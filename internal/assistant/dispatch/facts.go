package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/tripdesk-core/server/internal/assistant/graph/tools"
	"github.com/tripdesk-core/server/internal/assistant/model"
)

// flattenFacts converts one tool's JSON output into receipt facts. The key
// is a stable identifier; the value is the sentence the composer grounds
// its narrative in.
func flattenFacts(toolName, raw string) ([]model.FactUsed, error) {
	switch toolName {
	case tools.ToolWeatherLookup:
		var out tools.WeatherLookupOutput
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		return []model.FactUsed{{
			Source: toolName,
			Key:    fmt.Sprintf("climate:%s:%s", out.City, out.Month),
			Value: fmt.Sprintf("%s in %s: highs around %d°C, lows around %d°C, roughly %d rainy days, %s.",
				out.City, out.Month, out.HighC, out.LowC, out.RainyDays, out.Conditions),
		}}, nil

	case tools.ToolFlightRoutes:
		var out tools.FlightRoutesOutput
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		facts := make([]model.FactUsed, 0, len(out.Routes))
		for _, r := range out.Routes {
			stops := "nonstop"
			if !r.Nonstop {
				stops = "with a stop"
			}
			facts = append(facts, model.FactUsed{
				Source: toolName,
				Key:    fmt.Sprintf("route:%s-%s:%s", out.OriginCity, out.DestinationCity, r.Airline),
				Value: fmt.Sprintf("%s flies %s to %s %s, %s, about %s, typical fare $%d.",
					r.Airline, out.OriginCity, out.DestinationCity, r.Frequency, stops, r.Duration, r.FareUSD),
			})
		}
		return facts, nil

	case tools.ToolAttractionGuide:
		var out tools.AttractionGuideOutput
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		facts := make([]model.FactUsed, 0, len(out.Attractions))
		for _, a := range out.Attractions {
			facts = append(facts, model.FactUsed{
				Source: toolName,
				Key:    fmt.Sprintf("poi:%s:%s", out.City, a.Name),
				Value:  fmt.Sprintf("%s (%s): %s.", a.Name, a.Kind, a.Note),
			})
		}
		return facts, nil

	case tools.ToolDestinationIdeas:
		var out tools.DestinationIdeasOutput
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		facts := make([]model.FactUsed, 0, len(out.Ideas))
		for _, idea := range out.Ideas {
			facts = append(facts, model.FactUsed{
				Source: toolName,
				Key:    fmt.Sprintf("idea:%s:%s", out.Month, idea.City),
				Value: fmt.Sprintf("%s, %s in %s: %s (about $%d/day).",
					idea.City, idea.Country, out.Month, idea.Why, idea.DailyBudgetUSD),
			})
		}
		return facts, nil

	case tools.ToolTravelAdvisory:
		var out tools.TravelAdvisoryOutput
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		facts := make([]model.FactUsed, 0, len(out.Notices))
		for _, n := range out.Notices {
			facts = append(facts, model.FactUsed{
				Source: toolName,
				Key:    fmt.Sprintf("advisory:%s:%s", n.Region, n.Topic),
				Value:  n.Summary,
			})
		}
		return facts, nil

	case tools.ToolWebSearch:
		var out tools.WebSearchOutput
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		facts := make([]model.FactUsed, 0, len(out.Results))
		for _, r := range out.Results {
			facts = append(facts, model.FactUsed{
				Source: toolName,
				Key:    r.URL,
				Value:  fmt.Sprintf("%s: %s", r.Title, r.Snippet),
			})
		}
		return facts, nil

	default:
		return nil, fmt.Errorf("no flattener for tool %q", toolName)
	}
}
