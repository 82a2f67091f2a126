package classify

import (
	"regexp"

	"github.com/tripdesk-core/server/internal/assistant/model"
)

// RuleClassifier is the final cascade tier: ordered keyword rules with a
// fixed confidence. It never errors; when nothing matches it hands back the
// low-confidence unknown result.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

const ruleConfidence = 0.75

type rule struct {
	re     *regexp.Regexp
	intent model.Intent
}

// Ordered: first match wins, so the more specific vocabularies come first.
var rules = []rule{
	{regexp.MustCompile(`(?i)\b(what can you do|who are you|how do you work|help)\b`), model.IntentSystem},
	{regexp.MustCompile(`(?i)\b(search the web|look\s?up|google)\b`), model.IntentWebSearch},
	{regexp.MustCompile(`(?i)\b(pack|packing|suitcase|luggage|wear)\b`), model.IntentPacking},
	{regexp.MustCompile(`(?i)\b(weather|forecast|temperature|rain|climate)\b`), model.IntentWeather},
	{regexp.MustCompile(`(?i)\b(flight|flights|airline|airlines|fly|airfare|nonstop)\b`), model.IntentFlights},
	{regexp.MustCompile(`(?i)\b(things to do|attraction|attractions|museum|sightseeing|itinerary)\b`), model.IntentAttractions},
	{regexp.MustCompile(`(?i)\b(where should i go|destination|destinations|getaway|vacation|trip)\b`), model.IntentDestinations},
}

// Classify applies the rules in order. The flight-vocabulary downgrade
// mirrors the local tier: airline talk without a concrete route is a
// destinations question.
func (c *RuleClassifier) Classify(text string, prior Prior) *model.ClassificationResult {
	for _, r := range rules {
		if !r.re.MatchString(text) {
			continue
		}
		res := &model.ClassificationResult{
			ContentType: model.ContentTravel,
			Intent:      r.intent,
			Confidence:  ruleConfidence,
			Tier:        TierRules,
		}
		if res.Intent == model.IntentSystem {
			res.ContentType = model.ContentSystem
		}
		if res.Intent == model.IntentFlights && !hasRoutePair(prior.Slots) {
			res.Intent = model.IntentDestinations
			res.Notes = append(res.Notes, "flight_vocabulary_no_route")
		}
		return res
	}

	out := model.Unclassified()
	out.Tier = TierRules
	return out
}
