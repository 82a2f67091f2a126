package classify

import (
	"regexp"
	"strings"
	"time"

	"github.com/tripdesk-core/server/internal/assistant/model"
	"github.com/tripdesk-core/server/internal/assistant/slots"
)

// LocalClassifier is the first cascade tier: a weighted-lexicon intent
// scorer plus deterministic entity extraction. It is cheap, fully offline,
// and confident only when the phrasing is unambiguous.
type LocalClassifier struct {
	now func() time.Time
}

func NewLocalClassifier(now func() time.Time) *LocalClassifier {
	if now == nil {
		now = time.Now
	}
	return &LocalClassifier{now: now}
}

type lexEntry struct {
	phrases map[string]float64 // substring match on the lowered text
	stems   map[string]float64 // prefix match on tokens
}

var intentLexicon = map[model.Intent]lexEntry{
	model.IntentWeather: {
		phrases: map[string]float64{"how hot": 0.5, "how cold": 0.5},
		stems: map[string]float64{
			"weather": 0.7, "forecast": 0.65, "temperature": 0.6,
			"climate": 0.55, "rain": 0.45, "humid": 0.45, "sunny": 0.4,
		},
	},
	model.IntentPacking: {
		phrases: map[string]float64{"what to wear": 0.7},
		stems: map[string]float64{
			"pack": 0.7, "suitcase": 0.55, "luggage": 0.5,
			"clothes": 0.45, "outfit": 0.4, "wear": 0.35,
		},
	},
	model.IntentAttractions: {
		phrases: map[string]float64{
			"things to do": 0.75, "what to see": 0.7, "must see": 0.6,
		},
		stems: map[string]float64{
			"attraction": 0.65, "landmark": 0.55, "museum": 0.5,
			"sightsee": 0.5, "itinerary": 0.5, "activities": 0.45, "visit": 0.4,
		},
	},
	model.IntentDestinations: {
		phrases: map[string]float64{
			"where should i go": 0.8, "where to go": 0.7, "trip ideas": 0.65,
		},
		stems: map[string]float64{
			"destination": 0.65, "getaway": 0.6, "honeymoon": 0.5,
			"vacation": 0.4, "recommend": 0.4, "suggest": 0.4,
		},
	},
	model.IntentFlights: {
		phrases: map[string]float64{"direct flight": 0.7},
		stems: map[string]float64{
			"flight": 0.65, "airline": 0.65, "airfare": 0.65,
			"nonstop": 0.55, "fly": 0.55, "layover": 0.5, "airport": 0.4,
		},
	},
	model.IntentWebSearch: {
		phrases: map[string]float64{
			"search the web": 0.85, "can you search": 0.7,
			"search for": 0.6, "look up": 0.55,
		},
		stems: map[string]float64{"google": 0.7},
	},
	model.IntentSystem: {
		phrases: map[string]float64{
			"what can you do": 0.85, "who are you": 0.8,
			"how do you work": 0.75, "what do you do": 0.7,
		},
		stems: map[string]float64{"capabilities": 0.7, "commands": 0.6, "help": 0.55},
	},
}

// intentOrder fixes the tie-break priority when two intents score equally.
var intentOrder = []model.Intent{
	model.IntentWeather, model.IntentPacking, model.IntentAttractions,
	model.IntentDestinations, model.IntentFlights, model.IntentWebSearch,
	model.IntentSystem,
}

// knownCities maps lowercase forms to canonical spellings. Deliberately a
// short list; capitalized unknown cities still come in through the
// preposition pattern, and the LLM tier covers the rest.
var knownCities = map[string]string{
	"paris": "Paris", "tokyo": "Tokyo", "london": "London", "rome": "Rome",
	"barcelona": "Barcelona", "madrid": "Madrid", "lisbon": "Lisbon",
	"berlin": "Berlin", "amsterdam": "Amsterdam", "vienna": "Vienna",
	"prague": "Prague", "budapest": "Budapest", "athens": "Athens",
	"istanbul": "Istanbul", "dubai": "Dubai", "singapore": "Singapore",
	"bangkok": "Bangkok", "hanoi": "Hanoi", "seoul": "Seoul",
	"osaka": "Osaka", "kyoto": "Kyoto", "sydney": "Sydney",
	"melbourne": "Melbourne", "auckland": "Auckland", "honolulu": "Honolulu",
	"vancouver": "Vancouver", "toronto": "Toronto", "montreal": "Montreal",
	"new york": "New York", "boston": "Boston", "chicago": "Chicago",
	"seattle": "Seattle", "san francisco": "San Francisco",
	"los angeles": "Los Angeles", "miami": "Miami", "denver": "Denver",
	"mexico city": "Mexico City", "lima": "Lima", "cusco": "Cusco",
	"rio de janeiro": "Rio de Janeiro", "buenos aires": "Buenos Aires",
	"cape town": "Cape Town", "marrakech": "Marrakech", "cairo": "Cairo",
	"reykjavik": "Reykjavik", "zurich": "Zurich", "geneva": "Geneva",
	"venice": "Venice", "florence": "Florence", "milan": "Milan",
	"munich": "Munich", "oslo": "Oslo", "stockholm": "Stockholm",
	"copenhagen": "Copenhagen", "helsinki": "Helsinki", "dublin": "Dublin",
	"edinburgh": "Edinburgh", "porto": "Porto", "seville": "Seville",
	"kathmandu": "Kathmandu", "phuket": "Phuket", "bali": "Bali",
}

// capitalized words that the preposition pattern must never take for a city.
var cityStopwords = map[string]struct{}{
	"i": {}, "the": {}, "a": {}, "my": {}, "our": {}, "your": {},
	"what": {}, "where": {}, "when": {}, "how": {}, "which": {}, "who": {},
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
	"spring": {}, "summer": {}, "autumn": {}, "fall": {}, "winter": {},
}

var (
	routeRe       = regexp.MustCompile(`\bfrom\s+([A-Z][A-Za-z]+(?:\s[A-Z][A-Za-z]+)?)\s+to\s+([A-Z][A-Za-z]+(?:\s[A-Z][A-Za-z]+)?)`)
	prepCityRe    = regexp.MustCompile(`\b(?:in|at|around|near|to|for)\s+([A-Z][a-z]+(?:\s[A-Z][a-z]+)?)`)
	monthRe       = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
	monthDayRe    = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:\s*[-–]\s*(\d{1,2}))?\b`)
	monthPartRe   = regexp.MustCompile(`(?i)\b(early|mid|late)\s+(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
	isoDateRe     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	weekdayRe     = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	budgetRe      = regexp.MustCompile(`(?i)(\$\s*\d[\d,]*(?:\.\d+)?k?|\b\d[\d,]*\s*(?:dollars|usd|euros?|bucks)\b)`)
	passengersRe  = regexp.MustCompile(`(?i)\b(\d+)\s+(?:people|passengers|adults|travelers|travellers|of us)\b`)
	budgetWordsRe = regexp.MustCompile(`(?i)\b(budget|afford|cheap|cost|spend)\w*\b`)
	tokenSplitRe  = regexp.MustCompile(`[^a-z0-9]+`)
	capitalMayRe  = regexp.MustCompile(`\bMay\b`)
)

// Classify scores the message against the intent lexicon and extracts slot
// candidates. It never fails; low confidence is how it declines.
func (c *LocalClassifier) Classify(text string, prior Prior) (*model.ClassificationResult, error) {
	lower := strings.ToLower(text)
	tokens := tokenize(lower)

	res := &model.ClassificationResult{
		ContentType: model.ContentTravel,
		Intent:      model.IntentUnknown,
		Confidence:  0.2,
		Tier:        TierLocal,
	}

	c.extract(text, lower, res)

	best, bestScore := model.IntentUnknown, 0.0
	for _, intent := range intentOrder {
		score := scoreLexicon(lower, tokens, intentLexicon[intent])
		if score > bestScore {
			best, bestScore = intent, score
		}
	}

	if bestScore > 0 {
		res.Intent = best
		res.Confidence = min(0.95, bestScore)
		if slotBonusApplies(best, res, prior) {
			res.Confidence = min(0.97, res.Confidence+0.15)
		}
	}

	// Airline vocabulary with no concrete route is a question about a
	// destination, not a bookable flight.
	if res.Intent == model.IntentFlights && !hasRoutePair(res.Slots) && !hasRoutePair(prior.Slots) {
		res.Intent = model.IntentDestinations
		res.Notes = append(res.Notes, "flight_vocabulary_no_route")
	}

	switch {
	case res.Intent == model.IntentSystem:
		res.ContentType = model.ContentSystem
	case res.Slot(model.SlotBudget) != "" || budgetWordsRe.MatchString(lower):
		res.ContentType = model.ContentBudget
	}

	return res, nil
}

func (c *LocalClassifier) extract(text, lower string, res *model.ClassificationResult) {
	var origin, dest string
	if m := routeRe.FindStringSubmatch(text); m != nil {
		origin, dest = canonicalCity(m[1]), canonicalCity(m[2])
		if origin != "" {
			res.SetSlot(model.SlotOriginCity, origin)
		}
		if dest != "" {
			res.SetSlot(model.SlotDestinationCity, dest)
		}
	}

	if city := findKnownCity(lower); city != "" && city != origin && city != dest {
		res.SetSlot(model.SlotCity, city)
	} else if m := prepCityRe.FindStringSubmatch(text); m != nil {
		if cand := canonicalCity(m[1]); cand != "" && cand != origin && cand != dest {
			res.SetSlot(model.SlotCity, cand)
		}
	}

	if m := monthDayRe.FindStringSubmatch(text); m != nil && monthMatchOK(text, m[1]) {
		dates := titleWord(m[1]) + " " + m[2]
		if m[3] != "" {
			dates += "-" + m[3]
		}
		res.SetSlot(model.SlotDates, dates)
		res.SetSlot(model.SlotMonth, titleWord(m[1]))
	} else if m := monthPartRe.FindStringSubmatch(text); m != nil && monthMatchOK(text, m[2]) {
		res.SetSlot(model.SlotDates, strings.ToLower(m[1])+" "+titleWord(m[2]))
		res.SetSlot(model.SlotMonth, titleWord(m[2]))
	} else if m := monthRe.FindStringSubmatch(text); m != nil && monthMatchOK(text, m[1]) {
		res.SetSlot(model.SlotMonth, titleWord(m[1]))
	}

	if strings.Contains(lower, "next month") {
		res.SetSlot(model.SlotMonth, c.now().AddDate(0, 1, 0).Month().String())
	} else if strings.Contains(lower, "this month") {
		res.SetSlot(model.SlotMonth, c.now().Month().String())
	}

	if res.Slot(model.SlotDates) == "" {
		if m := isoDateRe.FindAllString(text, 2); len(m) > 0 {
			res.SetSlot(model.SlotDates, strings.Join(m, " to "))
		} else if m := weekdayRe.FindStringSubmatch(text); m != nil {
			res.SetSlot(model.SlotDates, titleWord(m[1]))
		}
	}

	if m := budgetRe.FindStringSubmatch(text); m != nil {
		res.SetSlot(model.SlotBudget, strings.TrimSpace(m[1]))
	}
	if m := passengersRe.FindStringSubmatch(text); m != nil {
		res.SetSlot(model.SlotPassengers, m[1])
	}
}

func scoreLexicon(lower string, tokens []string, lex lexEntry) float64 {
	var score float64
	for phrase, w := range lex.phrases {
		if strings.Contains(lower, phrase) {
			score += w
		}
	}
	for stem, w := range lex.stems {
		for _, tok := range tokens {
			if strings.HasPrefix(tok, stem) && len(tok)-len(stem) <= 4 {
				score += w
				break
			}
		}
	}
	return score
}

// slotBonusApplies reports whether extraction backed the scored intent with
// a relevant slot, which bumps confidence.
func slotBonusApplies(intent model.Intent, res *model.ClassificationResult, prior Prior) bool {
	switch intent {
	case model.IntentWeather, model.IntentPacking, model.IntentAttractions:
		return res.Slot(model.SlotCity) != "" || res.Slot(model.SlotMonth) != ""
	case model.IntentDestinations:
		return res.Slot(model.SlotMonth) != "" || res.Slot(model.SlotBudget) != ""
	case model.IntentFlights:
		return hasRoutePair(res.Slots) || hasRoutePair(prior.Slots)
	default:
		return false
	}
}

func hasRoutePair(m map[string]string) bool {
	return m[model.SlotOriginCity] != "" && m[model.SlotDestinationCity] != ""
}

func findKnownCity(lower string) string {
	for form, canonical := range knownCities {
		if containsWord(lower, form) {
			return canonical
		}
	}
	return ""
}

// canonicalCity validates a capitalized candidate: months, stopwords and
// placeholder filler never qualify.
func canonicalCity(cand string) string {
	cand = strings.TrimSpace(cand)
	if cand == "" || slots.IsCalendarMonth(cand) || slots.IsPlaceholder(cand) {
		return ""
	}
	if _, stop := cityStopwords[strings.ToLower(cand)]; stop {
		return ""
	}
	if canonical, ok := knownCities[strings.ToLower(cand)]; ok {
		return canonical
	}
	return cand
}

func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(haystack[start-1])
		afterOK := end == len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func tokenize(lower string) []string {
	parts := tokenSplitRe.Split(lower, -1)
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// monthMatchOK guards the one ambiguous month: a lowercase "may" is almost
// always the auxiliary verb, so May only counts when capitalized.
func monthMatchOK(text, matched string) bool {
	if strings.ToLower(matched) != "may" {
		return true
	}
	return capitalMayRe.MatchString(text)
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
