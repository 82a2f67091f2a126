package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

type DestinationIdeasInput struct {
	Month string `json:"month,omitempty"`
	Theme string `json:"theme,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type DestinationIdea struct {
	City           string   `json:"city"`
	Country        string   `json:"country"`
	Why            string   `json:"why"`
	DailyBudgetUSD int      `json:"daily_budget_usd"`
	Tags           []string `json:"tags,omitempty"`
}

type DestinationIdeasOutput struct {
	Result
	Month string            `json:"month,omitempty"`
	Ideas []DestinationIdea `json:"ideas,omitempty"`
}

func createDestinationIdeasTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolDestinationIdeas,
			Desc: "Suggest destinations that suit a given month, optionally filtered by theme (beach, city, food, nature, budget). Returns a short list with reasons and rough daily budgets.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"month": {
					Type: "string",
					Desc: "Travel month, e.g. March. Defaults to the current month.",
				},
				"theme": {
					Type: "string",
					Desc: "Optional theme filter: beach, city, food, nature, budget.",
				},
				"limit": {
					Type: "number",
					Desc: "Maximum number of suggestions (default 3).",
				},
			}),
		},
		func(ctx context.Context, in *DestinationIdeasInput) (*DestinationIdeasOutput, error) {
			month := parseMonth(in.Month)
			limit := in.Limit
			if limit <= 0 {
				limit = 3
			}

			pool := ideasBySeason[seasonIndex(month)]
			ideas := filterByTheme(pool, in.Theme)
			if len(ideas) == 0 {
				// An unrecognized theme still deserves suggestions.
				ideas = pool
			}
			if len(ideas) > limit {
				ideas = ideas[:limit]
			}
			return &DestinationIdeasOutput{
				Result: Result{OK: true},
				Month:  month.String(),
				Ideas:  ideas,
			}, nil
		},
	)
}

func filterByTheme(pool []DestinationIdea, theme string) []DestinationIdea {
	if theme == "" {
		return pool
	}
	var out []DestinationIdea
	for _, idea := range pool {
		for _, tag := range idea.Tags {
			if tag == theme {
				out = append(out, idea)
				break
			}
		}
	}
	return out
}

// ideasBySeason indexes suggestions by the season slots used across the
// catalogs: 0 Dec-Feb, 1 Mar-May, 2 Jun-Aug, 3 Sep-Nov.
var ideasBySeason = [4][]DestinationIdea{
	{
		{City: "Marrakech", Country: "Morocco", Why: "sunny winter days, souks and Atlas day trips", DailyBudgetUSD: 90, Tags: []string{"city", "budget", "food"}},
		{City: "Bangkok", Country: "Thailand", Why: "peak dry season, street food at its best", DailyBudgetUSD: 70, Tags: []string{"city", "food", "budget"}},
		{City: "Sydney", Country: "Australia", Why: "southern summer: harbour swims and coastal walks", DailyBudgetUSD: 180, Tags: []string{"beach", "city"}},
		{City: "Reykjavik", Country: "Iceland", Why: "northern lights season with ice-cave tours", DailyBudgetUSD: 220, Tags: []string{"nature"}},
	},
	{
		{City: "Kyoto", Country: "Japan", Why: "cherry blossom and temple gardens before summer heat", DailyBudgetUSD: 140, Tags: []string{"city", "nature", "food"}},
		{City: "Lisbon", Country: "Portugal", Why: "warm spring light, jacarandas, easy day trips", DailyBudgetUSD: 110, Tags: []string{"city", "food", "budget"}},
		{City: "Amsterdam", Country: "Netherlands", Why: "tulip fields an easy ride from town", DailyBudgetUSD: 170, Tags: []string{"city", "nature"}},
		{City: "Istanbul", Country: "Turkey", Why: "mild weather for mosques, bazaars and Bosphorus ferries", DailyBudgetUSD: 90, Tags: []string{"city", "food", "budget"}},
	},
	{
		{City: "Barcelona", Country: "Spain", Why: "beach plus Gaudi, long warm evenings", DailyBudgetUSD: 150, Tags: []string{"beach", "city", "food"}},
		{City: "Reykjavik", Country: "Iceland", Why: "midnight sun, highland roads finally open", DailyBudgetUSD: 230, Tags: []string{"nature"}},
		{City: "Vancouver", Country: "Canada", Why: "dry season for mountains, sea kayaking and patios", DailyBudgetUSD: 160, Tags: []string{"nature", "city"}},
		{City: "Prague", Country: "Czechia", Why: "river swims and beer gardens; book ahead, it is peak season", DailyBudgetUSD: 100, Tags: []string{"city", "budget"}},
	},
	{
		{City: "Rome", Country: "Italy", Why: "summer crowds gone, still warm into October", DailyBudgetUSD: 140, Tags: []string{"city", "food"}},
		{City: "Tokyo", Country: "Japan", Why: "clear skies and autumn foliage from late November", DailyBudgetUSD: 150, Tags: []string{"city", "food"}},
		{City: "Cape Town", Country: "South Africa", Why: "southern spring: whales, wildflowers, Table Mountain", DailyBudgetUSD: 110, Tags: []string{"nature", "beach", "budget"}},
		{City: "New York", Country: "United States", Why: "crisp park weather and the fall culture season", DailyBudgetUSD: 250, Tags: []string{"city"}},
	},
}
