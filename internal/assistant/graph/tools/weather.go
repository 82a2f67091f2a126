package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

type WeatherLookupInput struct {
	City  string `json:"city"`
	Month string `json:"month,omitempty"`
}

type WeatherLookupOutput struct {
	Result
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	Month      string `json:"month,omitempty"`
	HighC      int    `json:"high_c,omitempty"`
	LowC       int    `json:"low_c,omitempty"`
	RainyDays  int    `json:"rainy_days,omitempty"`
	Conditions string `json:"conditions,omitempty"`
}

func createWeatherLookupTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolWeatherLookup,
			Desc: "Look up typical weather for a city, optionally for a specific month. Returns climate normals: high/low temperature in Celsius, expected rainy days, and prevailing conditions.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"city": {
					Type:     "string",
					Desc:     "City name, e.g. Paris, Tokyo, New York.",
					Required: true,
				},
				"month": {
					Type: "string",
					Desc: "Calendar month, e.g. March. Defaults to the current month.",
				},
			}),
		},
		func(ctx context.Context, in *WeatherLookupInput) (*WeatherLookupOutput, error) {
			city := strings.TrimSpace(in.City)
			if city == "" {
				return nil, fmt.Errorf("city is required")
			}

			entry, ok := climateCatalog[strings.ToLower(city)]
			if !ok {
				return &WeatherLookupOutput{Result: Result{Reason: reasonNotFound}}, nil
			}

			month := parseMonth(in.Month)
			normals := entry.Seasons[seasonIndex(month)]
			return &WeatherLookupOutput{
				Result:     Result{OK: true},
				City:       entry.City,
				Country:    entry.Country,
				Month:      month.String(),
				HighC:      normals.HighC,
				LowC:       normals.LowC,
				RainyDays:  normals.RainyDays,
				Conditions: normals.Conditions,
			}, nil
		},
	)
}

type climateNormals struct {
	HighC      int
	LowC       int
	RainyDays  int
	Conditions string
}

type cityClimate struct {
	City    string
	Country string
	// Seasons holds climate normals in calendar order: Dec-Feb, Mar-May,
	// Jun-Aug, Sep-Nov. Southern-hemisphere cities encode their flipped
	// seasons directly in the data.
	Seasons [4]climateNormals
}

var climateCatalog = map[string]cityClimate{
	"paris": {
		City: "Paris", Country: "France",
		Seasons: [4]climateNormals{
			{7, 3, 10, "overcast with frequent drizzle"},
			{15, 7, 9, "mild with mixed sun and showers"},
			{25, 15, 8, "warm and mostly sunny"},
			{16, 9, 9, "crisp with scattered rain"},
		},
	},
	"tokyo": {
		City: "Tokyo", Country: "Japan",
		Seasons: [4]climateNormals{
			{10, 2, 5, "cool, dry and sunny"},
			{17, 9, 10, "mild with spring showers"},
			{30, 23, 12, "hot and humid with rainy-season spells"},
			{21, 13, 10, "clear with occasional typhoon rain"},
		},
	},
	"london": {
		City: "London", Country: "United Kingdom",
		Seasons: [4]climateNormals{
			{8, 3, 11, "grey with light rain"},
			{14, 6, 9, "cool with bright spells"},
			{22, 13, 8, "mild and changeable"},
			{15, 8, 10, "damp with fog patches"},
		},
	},
	"rome": {
		City: "Rome", Country: "Italy",
		Seasons: [4]climateNormals{
			{13, 4, 8, "cool with rainy days"},
			{19, 9, 8, "pleasantly warm"},
			{30, 18, 3, "hot and dry"},
			{22, 12, 8, "warm with autumn storms"},
		},
	},
	"barcelona": {
		City: "Barcelona", Country: "Spain",
		Seasons: [4]climateNormals{
			{14, 6, 5, "mild and mostly dry"},
			{18, 10, 6, "sunny and spring-like"},
			{28, 20, 3, "hot with sea breeze"},
			{22, 14, 6, "warm with short downpours"},
		},
	},
	"lisbon": {
		City: "Lisbon", Country: "Portugal",
		Seasons: [4]climateNormals{
			{15, 9, 10, "mild with Atlantic rain"},
			{19, 12, 7, "sunny with fresh breeze"},
			{27, 17, 1, "dry, sunny and warm"},
			{22, 14, 7, "warm with occasional rain"},
		},
	},
	"bangkok": {
		City: "Bangkok", Country: "Thailand",
		Seasons: [4]climateNormals{
			{32, 22, 2, "hot and dry"},
			{34, 26, 8, "very hot with building humidity"},
			{33, 25, 16, "monsoon downpours most afternoons"},
			{32, 24, 12, "wet season tapering off"},
		},
	},
	"new york": {
		City: "New York", Country: "United States",
		Seasons: [4]climateNormals{
			{4, -3, 8, "cold with snow chances"},
			{14, 6, 10, "cool and showery"},
			{28, 20, 9, "hot and humid"},
			{17, 9, 8, "crisp and clear"},
		},
	},
	"boston": {
		City: "Boston", Country: "United States",
		Seasons: [4]climateNormals{
			{2, -5, 9, "cold with nor'easter snow"},
			{12, 4, 10, "cool with spring rain"},
			{27, 18, 8, "warm and humid"},
			{16, 8, 9, "crisp with bright foliage days"},
		},
	},
	"reykjavik": {
		City: "Reykjavik", Country: "Iceland",
		Seasons: [4]climateNormals{
			{2, -3, 13, "cold, windy, frequent sleet"},
			{6, 1, 11, "chilly with long daylight growth"},
			{13, 8, 10, "cool with midnight-sun evenings"},
			{7, 2, 13, "wet and blustery"},
		},
	},
	"dubai": {
		City: "Dubai", Country: "United Arab Emirates",
		Seasons: [4]climateNormals{
			{25, 15, 2, "warm and sunny"},
			{33, 22, 1, "hot and dry"},
			{41, 30, 0, "extremely hot"},
			{35, 24, 1, "hot, cooling late in the season"},
		},
	},
	"sydney": {
		City: "Sydney", Country: "Australia",
		Seasons: [4]climateNormals{
			{26, 19, 9, "warm summer with humid spells"},
			{22, 14, 10, "mild autumn"},
			{17, 8, 8, "cool, sunny winter days"},
			{22, 13, 8, "warm spring"},
		},
	},
	"miami": {
		City: "Miami", Country: "United States",
		Seasons: [4]climateNormals{
			{25, 16, 6, "warm and dry"},
			{29, 21, 8, "hot with rising humidity"},
			{32, 25, 15, "hot, humid, daily thunderstorms"},
			{30, 23, 14, "hurricane-season downpours"},
		},
	},
	"kyoto": {
		City: "Kyoto", Country: "Japan",
		Seasons: [4]climateNormals{
			{9, 1, 6, "cold and mostly clear"},
			{18, 9, 10, "mild with blossom showers"},
			{32, 23, 12, "hot and muggy"},
			{22, 13, 9, "comfortable with autumn color"},
		},
	},
	"singapore": {
		City: "Singapore", Country: "Singapore",
		Seasons: [4]climateNormals{
			{30, 24, 13, "hot with monsoon rain"},
			{32, 25, 14, "hot and stormy afternoons"},
			{31, 25, 13, "hot with brief showers"},
			{31, 24, 14, "hot with heavy downpours"},
		},
	},
	"marrakech": {
		City: "Marrakech", Country: "Morocco",
		Seasons: [4]climateNormals{
			{19, 7, 6, "sunny days, cold nights"},
			{26, 13, 4, "warm and bright"},
			{37, 21, 1, "very hot and dry"},
			{28, 15, 4, "hot, cooling into autumn"},
		},
	},
}
