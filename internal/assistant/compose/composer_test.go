package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk-core/server/internal/assistant/model"
)

type cannedWriter struct {
	reply string
	err   error
	calls int
}

func (m *cannedWriter) Generate(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: m.reply,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 120, CompletionTokens: 45, TotalTokens: 165},
		},
	}, nil
}

func (m *cannedWriter) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func parisMarchFacts() []model.FactUsed {
	return []model.FactUsed{{
		Source: "weather_lookup",
		Key:    "climate:Paris:March",
		Value:  "Paris in March: highs around 12°C, lows around 4°C, roughly 10 rainy days, mild with mixed sun and showers.",
	}}
}

func TestComposeBlendsFactsIntoNarrative(t *testing.T) {
	fake := &cannedWriter{reply: "Early March in Paris hovers around 12°C by day, so bring a light jacket."}
	c := New(fake, "test-writer", "TripDesk", nil)

	out := c.Compose(context.Background(), Input{
		Intent:      model.IntentWeather,
		Style:       model.StyleFacts,
		UserMessage: "Weather in Paris in March?",
		Slots:       map[string]string{model.SlotCity: "Paris", model.SlotMonth: "March"},
		Facts:       parisMarchFacts(),
	})

	assert.Equal(t, fake.reply, out.Reply)
	assert.Equal(t, []string{"weather_lookup"}, out.Citations)
	assert.Equal(t, 1, fake.calls)
}

func TestComposeKeepsSkeletonWhenWriterFails(t *testing.T) {
	fake := &cannedWriter{err: errors.New("upstream 500")}
	c := New(fake, "test-writer", "TripDesk", nil)

	out := c.Compose(context.Background(), Input{
		Intent: model.IntentWeather,
		Style:  model.StyleFacts,
		Slots:  map[string]string{model.SlotCity: "Paris", model.SlotMonth: "March"},
		Facts:  parisMarchFacts(),
	})

	assert.Contains(t, out.Reply, "Paris in March")
	assert.Contains(t, out.Reply, "12°C")
	assert.Equal(t, []string{"weather_lookup"}, out.Citations, "writer failure must not cost the citations")
}

func TestComposeRejectsPlanEcho(t *testing.T) {
	fake := &cannedWriter{reply: `{"route": "dispatch", "intent": "weather", "tool_calls": []}`}
	c := New(fake, "test-writer", "TripDesk", nil)

	out := c.Compose(context.Background(), Input{
		Intent: model.IntentWeather,
		Style:  model.StyleFacts,
		Slots:  map[string]string{model.SlotCity: "Paris", model.SlotMonth: "March"},
		Facts:  parisMarchFacts(),
	})

	assert.NotContains(t, out.Reply, `"route"`)
	assert.Contains(t, out.Reply, "Paris in March", "plan echo degrades to the skeleton")
}

func TestComposeWithoutFactsNeverCitesSources(t *testing.T) {
	c := New(nil, "", "TripDesk", nil)

	inputs := []Input{
		{Intent: model.IntentFlights, Style: model.StyleFacts, Failures: []model.ToolFailure{{Target: "flight_routes", Reason: "not_found"}}},
		{Intent: model.IntentUnknown, Style: model.StyleNudge},
		{Intent: model.IntentUnknown, Style: model.StyleRedirect},
		{Style: model.StyleDecline},
		{Intent: model.IntentSystem, Style: model.StyleSystem},
	}
	for _, in := range inputs {
		out := c.Compose(context.Background(), in)
		lower := strings.ToLower(out.Reply)
		assert.NotContains(t, lower, "according to", "style %q", in.Style)
		assert.NotContains(t, lower, "[source:", "style %q", in.Style)
		assert.Empty(t, out.Citations, "style %q", in.Style)
	}
}

func TestComposeApologyStaysOnTopic(t *testing.T) {
	c := New(nil, "", "TripDesk", nil)

	out := c.Compose(context.Background(), Input{
		Intent:   model.IntentFlights,
		Style:    model.StyleFacts,
		Failures: []model.ToolFailure{{Target: "flight_routes", Reason: "exception"}},
	})

	assert.Contains(t, out.Reply, "flight")
	assert.NotContains(t, out.Reply, "exception", "raw failure reasons never reach the user")
}

func TestComposeCannedStyles(t *testing.T) {
	c := New(nil, "", "Wanderbot", nil)

	system := c.Compose(context.Background(), Input{Style: model.StyleSystem})
	assert.Contains(t, system.Reply, "Wanderbot")
	assert.Contains(t, system.Reply, "/why")

	decline := c.Compose(context.Background(), Input{Style: model.StyleDecline})
	assert.Contains(t, decline.Reply, "skip the web lookup")

	nudge := c.Compose(context.Background(), Input{Style: model.StyleNudge})
	assert.Contains(t, nudge.Reply, "weather")
}

func TestComposeMixedLanguageCaveat(t *testing.T) {
	c := New(nil, "", "TripDesk", nil)

	out := c.Compose(context.Background(), Input{
		Intent:        model.IntentWeather,
		Style:         model.StyleFacts,
		Slots:         map[string]string{model.SlotCity: "Tokyo"},
		Facts:         parisMarchFacts(),
		MixedLanguage: true,
	})

	assert.Contains(t, out.Reply, "another language")
}

func TestComposeReportsWriterUsage(t *testing.T) {
	fake := &cannedWriter{reply: "Narrative."}
	var gotModel string
	var gotUsage *schema.TokenUsage
	hook := func(_ context.Context, name string, usage *schema.TokenUsage) {
		gotModel = name
		gotUsage = usage
	}
	c := New(fake, "test-writer", "TripDesk", hook)

	c.Compose(context.Background(), Input{
		Intent: model.IntentWeather,
		Style:  model.StyleFacts,
		Facts:  parisMarchFacts(),
	})

	require.NotNil(t, gotUsage)
	assert.Equal(t, "test-writer", gotModel)
	assert.Equal(t, 120, gotUsage.PromptTokens)
}

func TestCitationsPreferURLsAndDedupe(t *testing.T) {
	facts := []model.FactUsed{
		{Source: "web_search", Key: "https://www.flightconnections.com/", Value: "FlightConnections: route maps."},
		{Source: "web_search", Key: "https://www.google.com/travel/flights", Value: "Google Flights: fares."},
		{Source: "destination_ideas", Key: "idea:May:Lisbon", Value: "Lisbon, Portugal in May."},
		{Source: "destination_ideas", Key: "idea:May:Kyoto", Value: "Kyoto, Japan in May."},
	}

	got := Citations(facts)

	assert.Equal(t, []string{
		"https://www.flightconnections.com/",
		"https://www.google.com/travel/flights",
		"destination_ideas",
	}, got)
}

func TestClarifyReplyAsksOneQuestion(t *testing.T) {
	reply := ClarifyReply("Which city are you asking about?")

	assert.Contains(t, reply, "Which city")
	marks := strings.Count(reply, "?")
	assert.GreaterOrEqual(t, marks, 1)
	assert.LessOrEqual(t, marks, 2)
}

func TestBuildReceipt(t *testing.T) {
	facts := parisMarchFacts()
	decisions := []model.Decision{{Action: "classified_local", Confidence: 0.92}}
	budget := model.Budget{ToolLatencyMS: 7, PromptTokens: 120, CompletionTokens: 45}

	r := BuildReceipt("t1", model.IntentWeather, facts, decisions, budget)

	assert.Equal(t, "t1", r.ThreadID)
	assert.Equal(t, model.IntentWeather, r.Intent)
	assert.Equal(t, facts, r.Facts)
	assert.Equal(t, decisions, r.Decisions)
	assert.Equal(t, budget, r.Budget)
	assert.False(t, r.CreatedAt.IsZero())
}
