package model

// ContentType is the coarse bucket a message falls into before intent
// resolution.
type ContentType string

const (
	ContentTravel    ContentType = "travel"
	ContentBudget    ContentType = "budget"
	ContentSystem    ContentType = "system"
	ContentUnrelated ContentType = "unrelated"
)

// Intent is the travel question the user is asking.
type Intent string

const (
	IntentWeather      Intent = "weather"
	IntentPacking      Intent = "packing"
	IntentAttractions  Intent = "attractions"
	IntentDestinations Intent = "destinations"
	IntentFlights      Intent = "flights"
	IntentWebSearch    Intent = "web_search"
	IntentSystem       Intent = "system"
	IntentUnknown      Intent = "unknown"
)

// KnownIntent reports whether s is one of the recognized intents.
func KnownIntent(s string) bool {
	switch Intent(s) {
	case IntentWeather, IntentPacking, IntentAttractions, IntentDestinations,
		IntentFlights, IntentWebSearch, IntentSystem, IntentUnknown:
		return true
	}
	return false
}

// KnownContentType reports whether s is one of the recognized content types.
func KnownContentType(s string) bool {
	switch ContentType(s) {
	case ContentTravel, ContentBudget, ContentSystem, ContentUnrelated:
		return true
	}
	return false
}

// Slot keys emitted by the classifier tiers. Values are always plain strings;
// normalization happens at extraction time.
const (
	SlotCity            = "city"
	SlotMonth           = "month"
	SlotDates           = "dates"
	SlotOriginCity      = "originCity"
	SlotDestinationCity = "destinationCity"
	SlotPassengers      = "passengers"
	SlotBudget          = "budget"
)

// ClassificationResult is what a cascade tier produces. Slots hold extracted
// candidates only; merging against thread memory happens later and may reject
// placeholder values.
type ClassificationResult struct {
	ContentType   ContentType       `json:"content_type"`
	Intent        Intent            `json:"intent"`
	Confidence    float64           `json:"confidence"`
	Slots         map[string]string `json:"slots,omitempty"`
	Tier          string            `json:"tier,omitempty"`
	MixedLanguage bool              `json:"mixed_language,omitempty"`
	Notes         []string          `json:"notes,omitempty"`
}

// Slot returns the extracted value for key, or "".
func (r *ClassificationResult) Slot(key string) string {
	if r == nil || r.Slots == nil {
		return ""
	}
	return r.Slots[key]
}

// SetSlot records an extracted candidate, allocating the map on first use.
func (r *ClassificationResult) SetSlot(key, value string) {
	if r.Slots == nil {
		r.Slots = make(map[string]string)
	}
	r.Slots[key] = value
}

// Unclassified is the terminal result when every tier declines: unknown
// intent below the routing confidence floor.
func Unclassified() *ClassificationResult {
	return &ClassificationResult{
		ContentType: ContentTravel,
		Intent:      IntentUnknown,
		Confidence:  0.3,
		Tier:        "none",
	}
}
