package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

type WebSearchInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type WebSearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type WebSearchOutput struct {
	Result
	Query   string            `json:"query,omitempty"`
	Results []WebSearchResult `json:"results,omitempty"`
}

// createWebSearchTool ranks a curated travel index by keyword overlap. It
// stands in for the live search collaborator behind the consent gate and
// behaves deterministically so the orchestration around it can be tested.
func createWebSearchTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolWebSearch,
			Desc: "Run a web search and return result snippets. Only used after the user has explicitly agreed to a live lookup.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Search query text.",
					Required: true,
				},
				"max_results": {
					Type: "number",
					Desc: "Maximum number of results (default 3).",
				},
			}),
		},
		func(ctx context.Context, in *WebSearchInput) (*WebSearchOutput, error) {
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return nil, fmt.Errorf("query is required")
			}
			limit := in.MaxResults
			if limit <= 0 {
				limit = 3
			}

			ranked := rankSearchIndex(query)
			if len(ranked) == 0 {
				return &WebSearchOutput{Result: Result{Reason: reasonNotFound}, Query: query}, nil
			}
			if len(ranked) > limit {
				ranked = ranked[:limit]
			}
			return &WebSearchOutput{
				Result:  Result{OK: true},
				Query:   query,
				Results: ranked,
			}, nil
		},
	)
}

type searchDoc struct {
	WebSearchResult
	Keywords []string
}

func rankSearchIndex(query string) []WebSearchResult {
	terms := strings.Fields(strings.ToLower(query))

	type scored struct {
		doc   searchDoc
		score int
		order int
	}
	var hits []scored
	for i, doc := range searchIndex {
		score := 0
		for _, term := range terms {
			term = strings.Trim(term, "?,.!\"'")
			for _, kw := range doc.Keywords {
				if term == kw {
					score++
					break
				}
			}
		}
		if score > 0 {
			hits = append(hits, scored{doc: doc, score: score, order: i})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].order < hits[j].order
	})

	out := make([]WebSearchResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.doc.WebSearchResult)
	}
	return out
}

var searchIndex = []searchDoc{
	{
		WebSearchResult: WebSearchResult{
			Title:   "FlightConnections - route maps and airlines by airport",
			URL:     "https://www.flightconnections.com/",
			Snippet: "Interactive route maps showing which airlines fly nonstop between any two airports, with schedules by day of week.",
		},
		Keywords: []string{"airlines", "airline", "fly", "flights", "flight", "routes", "route", "nonstop", "direct"},
	},
	{
		WebSearchResult: WebSearchResult{
			Title:   "Google Flights - explore fares by date grid",
			URL:     "https://www.google.com/travel/flights",
			Snippet: "Compare fares across airlines and dates; the date grid and price graph show the cheapest days to fly on a route.",
		},
		Keywords: []string{"flights", "flight", "fares", "fare", "cheap", "airlines", "fly", "tickets", "ticket"},
	},
	{
		WebSearchResult: WebSearchResult{
			Title:   "Wikivoyage - Lisbon",
			URL:     "https://en.wikivoyage.org/wiki/Lisbon",
			Snippet: "Free travel guide to Lisbon: districts, how to arrive by plane and train, miradouros, and day trips to Sintra and Cascais.",
		},
		Keywords: []string{"lisbon", "portugal", "guide", "sintra"},
	},
	{
		WebSearchResult: WebSearchResult{
			Title:   "Wikivoyage - Tokyo",
			URL:     "https://en.wikivoyage.org/wiki/Tokyo",
			Snippet: "Free travel guide to Tokyo: wards, rail passes, etiquette, and seasonal events from cherry blossom to autumn leaves.",
		},
		Keywords: []string{"tokyo", "japan", "guide"},
	},
	{
		WebSearchResult: WebSearchResult{
			Title:   "Seat 31B - finding award availability on long-haul routes",
			URL:     "https://www.seat31b.com/",
			Snippet: "Practical notes on which airlines release award seats on transatlantic and transpacific routes and when to book.",
		},
		Keywords: []string{"award", "miles", "points", "airlines", "routes", "book"},
	},
	{
		WebSearchResult: WebSearchResult{
			Title:   "Rome2Rio - multi-modal routes between any two places",
			URL:     "https://www.rome2rio.com/",
			Snippet: "Door-to-door options combining flights, trains, buses and ferries, with rough fares and journey times.",
		},
		Keywords: []string{"train", "bus", "ferry", "routes", "route", "travel", "fly"},
	},
	{
		WebSearchResult: WebSearchResult{
			Title:   "IATA Travel Centre - passport, visa and health requirements",
			URL:     "https://www.iatatravelcentre.com/",
			Snippet: "Authoritative database of entry requirements by nationality: passport validity, visas, and health documentation.",
		},
		Keywords: []string{"visa", "passport", "entry", "requirements", "health"},
	},
	{
		WebSearchResult: WebSearchResult{
			Title:   "Weather Spark - year-round climate by city",
			URL:     "https://weatherspark.com/",
			Snippet: "Charts of typical temperature, rainfall and cloud cover for thousands of cities, by month and week.",
		},
		Keywords: []string{"weather", "climate", "temperature", "rainfall", "month"},
	},
}
