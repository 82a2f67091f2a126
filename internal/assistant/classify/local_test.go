package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk-core/server/internal/assistant/model"
)

func fixedNow() time.Time {
	return time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
}

func TestLocalClassifierScoresWeatherWithCity(t *testing.T) {
	c := NewLocalClassifier(fixedNow)

	res, err := c.Classify("What's the weather in Paris today?", Prior{})
	require.NoError(t, err)

	assert.Equal(t, model.IntentWeather, res.Intent)
	assert.Equal(t, "Paris", res.Slot(model.SlotCity))
	assert.GreaterOrEqual(t, res.Confidence, 0.65)
	assert.Equal(t, TierLocal, res.Tier)
}

func TestLocalClassifierExtractsRoutePair(t *testing.T) {
	c := NewLocalClassifier(fixedNow)

	res, err := c.Classify("Any direct flights from Boston to Lisbon in May?", Prior{})
	require.NoError(t, err)

	assert.Equal(t, model.IntentFlights, res.Intent)
	assert.Equal(t, "Boston", res.Slot(model.SlotOriginCity))
	assert.Equal(t, "Lisbon", res.Slot(model.SlotDestinationCity))
	assert.Equal(t, "May", res.Slot(model.SlotMonth))
	assert.Empty(t, res.Slot(model.SlotCity), "route endpoints must not double as the city slot")
}

func TestLocalClassifierDowngradesAirlineTalkWithoutRoute(t *testing.T) {
	c := NewLocalClassifier(fixedNow)

	res, err := c.Classify("What airlines fly there?", Prior{})
	require.NoError(t, err)

	assert.Equal(t, model.IntentDestinations, res.Intent)
	assert.Contains(t, res.Notes, "flight_vocabulary_no_route")
}

func TestLocalClassifierKeepsFlightsWhenPriorHasRoute(t *testing.T) {
	c := NewLocalClassifier(fixedNow)
	prior := Prior{Slots: map[string]string{
		model.SlotOriginCity:      "Boston",
		model.SlotDestinationCity: "Lisbon",
	}}

	res, err := c.Classify("Which airlines fly that route nonstop?", prior)
	require.NoError(t, err)

	assert.Equal(t, model.IntentFlights, res.Intent)
	assert.NotContains(t, res.Notes, "flight_vocabulary_no_route")
}

func TestLocalClassifierRejectsMonthAsCity(t *testing.T) {
	c := NewLocalClassifier(fixedNow)

	res, err := c.Classify("What's the weather in March?", Prior{})
	require.NoError(t, err)

	assert.Equal(t, model.IntentWeather, res.Intent)
	assert.Empty(t, res.Slot(model.SlotCity))
	assert.Equal(t, "March", res.Slot(model.SlotMonth))
}

func TestLocalClassifierLowercaseMayIsNotAMonth(t *testing.T) {
	c := NewLocalClassifier(fixedNow)

	res, err := c.Classify("How much may it cost to visit?", Prior{})
	require.NoError(t, err)

	assert.Empty(t, res.Slot(model.SlotMonth))
	assert.Equal(t, model.ContentBudget, res.ContentType)
}

func TestLocalClassifierParsesMonthDayRange(t *testing.T) {
	c := NewLocalClassifier(fixedNow)

	res, err := c.Classify("Things to do in Paris June 3-7?", Prior{})
	require.NoError(t, err)

	assert.Equal(t, model.IntentAttractions, res.Intent)
	assert.Equal(t, "Paris", res.Slot(model.SlotCity))
	assert.Equal(t, "June 3-7", res.Slot(model.SlotDates))
	assert.Equal(t, "June", res.Slot(model.SlotMonth))
}

func TestLocalClassifierWeekdayBecomesDates(t *testing.T) {
	c := NewLocalClassifier(fixedNow)

	res, err := c.Classify("and Tuesday?", Prior{})
	require.NoError(t, err)

	assert.Equal(t, model.IntentUnknown, res.Intent)
	assert.Equal(t, "Tuesday", res.Slot(model.SlotDates))
	assert.Less(t, res.Confidence, 0.65)
}

func TestLocalClassifierResolvesRelativeMonthsOnClock(t *testing.T) {
	c := NewLocalClassifier(fixedNow) // mid March

	res, err := c.Classify("Where should I go next month?", Prior{})
	require.NoError(t, err)

	assert.Equal(t, model.IntentDestinations, res.Intent)
	assert.Equal(t, "April", res.Slot(model.SlotMonth))
}

func TestLocalClassifierExtractsBudgetAndPassengers(t *testing.T) {
	c := NewLocalClassifier(fixedNow)

	res, err := c.Classify("Flights from Boston to Miami for 2 people under $1,200", Prior{})
	require.NoError(t, err)

	assert.Equal(t, model.IntentFlights, res.Intent)
	assert.Equal(t, "$1,200", res.Slot(model.SlotBudget))
	assert.Equal(t, "2", res.Slot(model.SlotPassengers))
	assert.Equal(t, model.ContentBudget, res.ContentType)
}

func TestLocalClassifierSystemQuestions(t *testing.T) {
	c := NewLocalClassifier(fixedNow)

	res, err := c.Classify("What can you do?", Prior{})
	require.NoError(t, err)

	assert.Equal(t, model.IntentSystem, res.Intent)
	assert.Equal(t, model.ContentSystem, res.ContentType)
	assert.GreaterOrEqual(t, res.Confidence, 0.65)
}
