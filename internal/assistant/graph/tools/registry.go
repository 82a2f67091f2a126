package tools

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// Tool names. The turn router plans against these and the dispatcher
// resolves them back to implementations.
const (
	ToolWeatherLookup    = "weather_lookup"
	ToolFlightRoutes     = "flight_routes"
	ToolAttractionGuide  = "attraction_guide"
	ToolDestinationIdeas = "destination_ideas"
	ToolTravelAdvisory   = "travel_advisory"
	ToolWebSearch        = "web_search"
)

// Result is the envelope every tool answers with: ok plus a machine-readable
// reason when not. Data absence is ok:false, never an error; errors are for
// broken calls.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

const (
	reasonNotFound = "not_found"
)

// GetTravelTools builds the full travel tool set. The advisory tool seeds a
// vector collection at construction, which is why this can fail.
func GetTravelTools(ctx context.Context) ([]tool.BaseTool, error) {
	advisory, err := createTravelAdvisoryTool(ctx)
	if err != nil {
		return nil, err
	}
	return []tool.BaseTool{
		createWeatherLookupTool(),
		createFlightRoutesTool(),
		createAttractionGuideTool(),
		createDestinationIdeasTool(),
		advisory,
		createWebSearchTool(),
	}, nil
}

// GetToolInfos resolves the schema infos for a tool set.
func GetToolInfos(ctx context.Context, ts []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// seasonIndex maps a calendar month onto the catalog's season slots:
// 0 Dec-Feb, 1 Mar-May, 2 Jun-Aug, 3 Sep-Nov.
func seasonIndex(m time.Month) int {
	switch m {
	case time.December, time.January, time.February:
		return 0
	case time.March, time.April, time.May:
		return 1
	case time.June, time.July, time.August:
		return 2
	default:
		return 3
	}
}

// parseMonth reads a month name, defaulting to the current month.
func parseMonth(s string) time.Month {
	s = strings.ToLower(strings.TrimSpace(s))
	for m := time.January; m <= time.December; m++ {
		if s == strings.ToLower(m.String()) {
			return m
		}
	}
	return time.Now().Month()
}
