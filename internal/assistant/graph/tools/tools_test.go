package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoke(t *testing.T, bt tool.BaseTool, args string) string {
	t.Helper()
	inv, ok := bt.(tool.InvokableTool)
	require.True(t, ok, "tool must be invokable")
	out, err := inv.InvokableRun(context.Background(), args)
	require.NoError(t, err)
	return out
}

func toolByName(t *testing.T, name string) tool.BaseTool {
	t.Helper()
	ctx := context.Background()
	ts, err := GetTravelTools(ctx)
	require.NoError(t, err)
	for _, bt := range ts {
		info, err := bt.Info(ctx)
		require.NoError(t, err)
		if info.Name == name {
			return bt
		}
	}
	t.Fatalf("tool %q not registered", name)
	return nil
}

func TestRegistryExposesAllToolsWithUniqueNames(t *testing.T) {
	ctx := context.Background()
	ts, err := GetTravelTools(ctx)
	require.NoError(t, err)

	infos, err := GetToolInfos(ctx, ts)
	require.NoError(t, err)
	require.Len(t, infos, 6)

	seen := map[string]bool{}
	for _, info := range infos {
		assert.False(t, seen[info.Name], "duplicate tool name %q", info.Name)
		seen[info.Name] = true
	}
	for _, name := range []string{
		ToolWeatherLookup, ToolFlightRoutes, ToolAttractionGuide,
		ToolDestinationIdeas, ToolTravelAdvisory, ToolWebSearch,
	} {
		assert.True(t, seen[name], "missing tool %q", name)
	}
}

func TestWeatherLookupKnownCity(t *testing.T) {
	raw := invoke(t, createWeatherLookupTool(), `{"city":"Paris","month":"March"}`)

	var out WeatherLookupOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))

	assert.True(t, out.OK)
	assert.Equal(t, "Paris", out.City)
	assert.Equal(t, "March", out.Month)
	assert.Equal(t, 15, out.HighC)
	assert.NotEmpty(t, out.Conditions)
}

func TestWeatherLookupUnknownCityIsNotFound(t *testing.T) {
	raw := invoke(t, createWeatherLookupTool(), `{"city":"Atlantis"}`)

	var out WeatherLookupOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))

	assert.False(t, out.OK)
	assert.Equal(t, reasonNotFound, out.Reason)
}

func TestFlightRoutesKnownPair(t *testing.T) {
	raw := invoke(t, createFlightRoutesTool(), `{"origin_city":"Boston","destination_city":"Lisbon"}`)

	var out FlightRoutesOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))

	require.True(t, out.OK)
	require.NotEmpty(t, out.Routes)
	assert.Equal(t, "TAP Air Portugal", out.Routes[0].Airline)
}

func TestFlightRoutesUnknownPairIsNotFound(t *testing.T) {
	raw := invoke(t, createFlightRoutesTool(), `{"origin_city":"Oslo","destination_city":"Cusco"}`)

	var out FlightRoutesOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))

	assert.False(t, out.OK)
	assert.Equal(t, reasonNotFound, out.Reason)
}

func TestDestinationIdeasFiltersByTheme(t *testing.T) {
	raw := invoke(t, createDestinationIdeasTool(), `{"month":"July","theme":"nature"}`)

	var out DestinationIdeasOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))

	require.True(t, out.OK)
	require.NotEmpty(t, out.Ideas)
	for _, idea := range out.Ideas {
		assert.Contains(t, idea.Tags, "nature")
	}
}

func TestTravelAdvisoryFindsRegionalNotice(t *testing.T) {
	raw := invoke(t, toolByName(t, ToolTravelAdvisory), `{"query":"visa requirements for Japan entry"}`)

	var out TravelAdvisoryOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))

	require.True(t, out.OK)
	require.NotEmpty(t, out.Notices)

	regions := make([]string, 0, len(out.Notices))
	for _, n := range out.Notices {
		regions = append(regions, n.Region)
	}
	assert.Contains(t, regions, "Japan")
}

func TestWebSearchRanksAirlineSourcesFirst(t *testing.T) {
	raw := invoke(t, createWebSearchTool(), `{"query":"What airlines fly there?"}`)

	var out WebSearchOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))

	require.True(t, out.OK)
	require.NotEmpty(t, out.Results)
	assert.Contains(t, out.Results[0].Title, "FlightConnections")
	assert.LessOrEqual(t, len(out.Results), 3)
}

func TestWebSearchNoMatchesIsNotFound(t *testing.T) {
	raw := invoke(t, createWebSearchTool(), `{"query":"xylophone maintenance"}`)

	var out WebSearchOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))

	assert.False(t, out.OK)
	assert.Equal(t, reasonNotFound, out.Reason)
}
