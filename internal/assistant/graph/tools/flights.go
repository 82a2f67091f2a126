package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

type FlightRoutesInput struct {
	OriginCity      string `json:"origin_city"`
	DestinationCity string `json:"destination_city"`
}

type FlightRoute struct {
	Airline   string `json:"airline"`
	Frequency string `json:"frequency"`
	Nonstop   bool   `json:"nonstop"`
	Duration  string `json:"duration"`
	FareUSD   int    `json:"typical_fare_usd"`
}

type FlightRoutesOutput struct {
	Result
	OriginCity      string        `json:"origin_city,omitempty"`
	DestinationCity string        `json:"destination_city,omitempty"`
	Routes          []FlightRoute `json:"routes,omitempty"`
}

func createFlightRoutesTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolFlightRoutes,
			Desc: "List airlines serving a city pair with typical frequency, duration and fare. Both endpoint cities are required.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"origin_city": {
					Type:     "string",
					Desc:     "Departure city, e.g. Boston.",
					Required: true,
				},
				"destination_city": {
					Type:     "string",
					Desc:     "Arrival city, e.g. Lisbon.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *FlightRoutesInput) (*FlightRoutesOutput, error) {
			origin := strings.TrimSpace(in.OriginCity)
			dest := strings.TrimSpace(in.DestinationCity)
			if origin == "" || dest == "" {
				return nil, fmt.Errorf("origin_city and destination_city are required")
			}

			routes, ok := routeCatalog[routeKey(origin, dest)]
			if !ok {
				return &FlightRoutesOutput{Result: Result{Reason: reasonNotFound}}, nil
			}
			return &FlightRoutesOutput{
				Result:          Result{OK: true},
				OriginCity:      origin,
				DestinationCity: dest,
				Routes:          routes,
			}, nil
		},
	)
}

func routeKey(origin, dest string) string {
	return strings.ToLower(strings.TrimSpace(origin)) + "|" + strings.ToLower(strings.TrimSpace(dest))
}

var routeCatalog = map[string][]FlightRoute{
	"boston|lisbon": {
		{Airline: "TAP Air Portugal", Frequency: "daily", Nonstop: true, Duration: "6h 45m", FareUSD: 620},
		{Airline: "Azores Airlines", Frequency: "3x weekly", Nonstop: false, Duration: "9h 30m", FareUSD: 540},
	},
	"new york|paris": {
		{Airline: "Air France", Frequency: "4x daily", Nonstop: true, Duration: "7h 20m", FareUSD: 680},
		{Airline: "Delta", Frequency: "3x daily", Nonstop: true, Duration: "7h 25m", FareUSD: 650},
		{Airline: "French Bee", Frequency: "daily", Nonstop: true, Duration: "7h 30m", FareUSD: 430},
	},
	"london|rome": {
		{Airline: "British Airways", Frequency: "5x daily", Nonstop: true, Duration: "2h 35m", FareUSD: 160},
		{Airline: "ITA Airways", Frequency: "3x daily", Nonstop: true, Duration: "2h 40m", FareUSD: 150},
		{Airline: "easyJet", Frequency: "2x daily", Nonstop: true, Duration: "2h 40m", FareUSD: 90},
	},
	"tokyo|bangkok": {
		{Airline: "Thai Airways", Frequency: "2x daily", Nonstop: true, Duration: "6h 50m", FareUSD: 420},
		{Airline: "ANA", Frequency: "daily", Nonstop: true, Duration: "6h 55m", FareUSD: 470},
		{Airline: "ZIPAIR", Frequency: "daily", Nonstop: true, Duration: "7h 00m", FareUSD: 280},
	},
	"paris|tokyo": {
		{Airline: "Air France", Frequency: "daily", Nonstop: true, Duration: "13h 55m", FareUSD: 950},
		{Airline: "Japan Airlines", Frequency: "daily", Nonstop: true, Duration: "13h 45m", FareUSD: 990},
	},
	"san francisco|tokyo": {
		{Airline: "United", Frequency: "2x daily", Nonstop: true, Duration: "10h 50m", FareUSD: 880},
		{Airline: "ANA", Frequency: "2x daily", Nonstop: true, Duration: "10h 45m", FareUSD: 910},
		{Airline: "JAL", Frequency: "daily", Nonstop: true, Duration: "10h 55m", FareUSD: 900},
	},
	"sydney|singapore": {
		{Airline: "Singapore Airlines", Frequency: "4x daily", Nonstop: true, Duration: "8h 10m", FareUSD: 560},
		{Airline: "Qantas", Frequency: "2x daily", Nonstop: true, Duration: "8h 15m", FareUSD: 590},
		{Airline: "Scoot", Frequency: "daily", Nonstop: true, Duration: "8h 20m", FareUSD: 310},
	},
	"miami|mexico city": {
		{Airline: "Aeromexico", Frequency: "3x daily", Nonstop: true, Duration: "3h 15m", FareUSD: 240},
		{Airline: "American", Frequency: "2x daily", Nonstop: true, Duration: "3h 20m", FareUSD: 260},
	},
	"boston|reykjavik": {
		{Airline: "Icelandair", Frequency: "daily", Nonstop: true, Duration: "5h 10m", FareUSD: 480},
	},
	"london|marrakech": {
		{Airline: "Royal Air Maroc", Frequency: "daily", Nonstop: true, Duration: "3h 45m", FareUSD: 210},
		{Airline: "easyJet", Frequency: "4x weekly", Nonstop: true, Duration: "3h 50m", FareUSD: 120},
	},
}
