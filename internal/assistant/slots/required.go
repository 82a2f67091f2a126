package slots

import (
	"strings"

	"github.com/tripdesk-core/server/internal/assistant/model"
)

// WhenClause is the missing-list entry for "no usable time frame". It is a
// requirement name, not a slot key: either month or dates satisfies it.
const WhenClause = "when"

// immediateTimeWords satisfy a when-clause without any stored month or
// dates; the question is about right now.
var immediateTimeWords = []string{
	"today", "now", "currently", "right now", "tonight",
	"this week", "this weekend", "at the moment",
}

// contextWords waive the when-clause per intent: the phrasing itself tells
// us the user is not asking about a particular time.
var contextWords = map[model.Intent][]string{
	model.IntentPacking: {
		"what to wear", "wear",
	},
	model.IntentDestinations: {
		"warm", "beach", "tropical", "ski", "snow",
		"cheap", "budget", "honeymoon", "anywhere",
	},
}

// HasImmediateTime reports whether the message talks about the present
// moment.
func HasImmediateTime(message string) bool {
	lower := strings.ToLower(message)
	for _, w := range immediateTimeWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// whenSatisfied reports whether merged slots or the message itself give a
// usable time frame for the intent.
func whenSatisfied(intent model.Intent, message string, merged map[string]string) bool {
	if merged[model.SlotMonth] != "" || merged[model.SlotDates] != "" {
		return true
	}
	if HasImmediateTime(message) {
		return true
	}
	lower := strings.ToLower(message)
	for _, w := range contextWords[intent] {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Missing computes the required-slot gaps for an intent against the merged
// slot view. The order is the clarify priority order.
func Missing(intent model.Intent, message string, merged map[string]string) []string {
	var missing []string

	switch intent {
	case model.IntentWeather, model.IntentAttractions:
		if merged[model.SlotCity] == "" {
			missing = append(missing, model.SlotCity)
		}
	case model.IntentPacking, model.IntentDestinations:
		if merged[model.SlotCity] == "" {
			missing = append(missing, model.SlotCity)
		}
		if !whenSatisfied(intent, message, merged) {
			missing = append(missing, WhenClause)
		}
	case model.IntentFlights:
		if merged[model.SlotOriginCity] == "" {
			missing = append(missing, model.SlotOriginCity)
		}
		if merged[model.SlotDestinationCity] == "" {
			missing = append(missing, model.SlotDestinationCity)
		}
	}

	return missing
}

// clarifyQuestions holds the single-concern wording per gap. Exactly one
// question per gap; the router asks only the first gap in priority order.
var clarifyQuestions = map[string]string{
	model.SlotCity:            "Which city are you asking about?",
	WhenClause:                "Which month (or travel dates) should I plan around?",
	model.SlotOriginCity:      "Which city are you flying from?",
	model.SlotDestinationCity: "Which city are you flying to?",
}

// ClarifyQuestion picks the one clarifying question for the first gap.
// Returns "" when nothing is missing.
func ClarifyQuestion(missing []string) string {
	if len(missing) == 0 {
		return ""
	}
	if q, ok := clarifyQuestions[missing[0]]; ok {
		return q
	}
	return "Could you tell me a bit more about your trip?"
}
