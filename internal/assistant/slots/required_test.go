package slots

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tripdesk-core/server/internal/assistant/model"
)

func TestMissingCityForWeather(t *testing.T) {
	missing := Missing(model.IntentWeather, "what's the weather like?", nil)
	assert.Equal(t, []string{model.SlotCity}, missing)

	missing = Missing(model.IntentWeather, "weather in Paris today?", map[string]string{"city": "Paris"})
	assert.Empty(t, missing)
}

func TestMissingWhenClauseForPacking(t *testing.T) {
	slots := map[string]string{"city": "Tokyo"}

	missing := Missing(model.IntentPacking, "what should I pack for my trip?", slots)
	assert.Equal(t, []string{WhenClause}, missing)

	// A stored month satisfies the when-clause.
	slots["month"] = "March"
	missing = Missing(model.IntentPacking, "what should I pack?", slots)
	assert.Empty(t, missing)
}

func TestImmediateTimeWaivesWhenClause(t *testing.T) {
	slots := map[string]string{"city": "Lisbon"}

	for _, msg := range []string{
		"what should I pack right now",
		"packing for Lisbon today",
		"what to wear in Lisbon",
	} {
		missing := Missing(model.IntentPacking, msg, slots)
		assert.Empty(t, missing, "message %q should not require a when-clause", msg)
	}
}

func TestContextWordsWaiveWhenClauseForDestinations(t *testing.T) {
	slots := map[string]string{"city": "Bangkok"}

	missing := Missing(model.IntentDestinations, "somewhere warm near Bangkok", slots)
	assert.Empty(t, missing)

	missing = Missing(model.IntentDestinations, "suggest day trips from Bangkok", slots)
	assert.Equal(t, []string{WhenClause}, missing)
}

func TestMissingFlightsEndpoints(t *testing.T) {
	missing := Missing(model.IntentFlights, "find me a flight", nil)
	assert.Equal(t, []string{model.SlotOriginCity, model.SlotDestinationCity}, missing)

	missing = Missing(model.IntentFlights, "flights from Paris to Rome", map[string]string{
		"originCity":      "Paris",
		"destinationCity": "Rome",
	})
	assert.Empty(t, missing)
}

func TestNoRequirementsForSystemAndUnknown(t *testing.T) {
	assert.Empty(t, Missing(model.IntentSystem, "/why", nil))
	assert.Empty(t, Missing(model.IntentUnknown, "hmm", nil))
	assert.Empty(t, Missing(model.IntentWebSearch, "search the web for ferry schedules", nil))
}

func TestClarifyQuestionSingleConcern(t *testing.T) {
	q := ClarifyQuestion([]string{model.SlotCity, WhenClause})

	// One concern only, phrased as exactly one question.
	assert.Equal(t, 1, strings.Count(q, "?"))
	assert.Contains(t, strings.ToLower(q), "city")
	assert.NotContains(t, strings.ToLower(q), "month")
}

func TestClarifyQuestionEmptyWhenNothingMissing(t *testing.T) {
	assert.Empty(t, ClarifyQuestion(nil))
}
