package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/tripdesk-core/server/internal/assistant/graph/prompts"
	"github.com/tripdesk-core/server/internal/assistant/model"
	logx "github.com/tripdesk-core/server/pkg/logger"
)

// Composer turns dispatch output into the user-facing reply: a
// deterministic fact skeleton, optionally blended into narrative prose by
// the writer model. Citations come only from facts that were actually
// retrieved this turn; with no facts there is nothing to cite and the reply
// must not pretend otherwise.
type Composer struct {
	chatModel     einomodel.BaseChatModel
	modelName     string
	assistantName string
	usage         model.UsageHook
}

// New builds a composer. chatModel may be nil, in which case every reply is
// the deterministic skeleton.
func New(chatModel einomodel.BaseChatModel, modelName, assistantName string, usage model.UsageHook) *Composer {
	if assistantName == "" {
		assistantName = "TripDesk"
	}
	return &Composer{
		chatModel:     chatModel,
		modelName:     modelName,
		assistantName: assistantName,
		usage:         usage,
	}
}

// Input is everything composition needs for one turn.
type Input struct {
	Intent        model.Intent
	Style         string
	UserMessage   string
	Slots         map[string]string
	Facts         []model.FactUsed
	Failures      []model.ToolFailure
	MixedLanguage bool
}

type Output struct {
	Reply     string
	Citations []string
}

// Compose renders the turn's reply. It never fails: writer errors degrade
// to the skeleton, and an empty facts list degrades to an on-topic apology.
func (c *Composer) Compose(ctx context.Context, in Input) Output {
	switch in.Style {
	case model.StyleSystem:
		return Output{Reply: c.CapabilityReply()}
	case model.StyleNudge:
		return Output{Reply: NudgeReply()}
	case model.StyleRedirect:
		return Output{Reply: RedirectReply()}
	case model.StyleDecline:
		return Output{Reply: DeclineReply()}
	}

	if len(in.Facts) == 0 {
		return Output{Reply: apology(in.Intent)}
	}

	reply := skeleton(in)
	if c.chatModel != nil {
		if narrative, ok := c.narrative(ctx, in); ok {
			reply = narrative
		}
	}
	if in.MixedLanguage {
		reply += " " + mixedLanguageNote
	}
	return Output{Reply: reply, Citations: Citations(in.Facts)}
}

// narrative asks the writer model to blend the facts into prose. A second
// return of false means the caller should keep the skeleton.
func (c *Composer) narrative(ctx context.Context, in Input) (string, bool) {
	visible := make(map[string]string, len(in.Slots))
	for k, v := range in.Slots {
		if !model.ReservedSlot(k) {
			visible[k] = v
		}
	}
	msgs, err := prompts.RenderCompose(ctx, c.assistantName, in.Intent, visible, in.Facts, in.UserMessage)
	if err != nil {
		logx.Debug().Err(err).Msg("compose: render failed")
		return "", false
	}
	out, err := c.chatModel.Generate(ctx, msgs)
	if err != nil || out == nil {
		logx.Debug().Err(err).Msg("compose: writer call failed")
		return "", false
	}
	if c.usage != nil && out.ResponseMeta != nil {
		c.usage(ctx, c.modelName, out.ResponseMeta.Usage)
	}

	content := strings.TrimSpace(out.Content)
	if content == "" || looksLikePlanEcho(content) {
		logx.Debug().Msg("compose: writer output unusable, keeping skeleton")
		return "", false
	}
	return content, true
}

// skeleton renders the facts deterministically, no model involved.
func skeleton(in Input) string {
	var b strings.Builder
	b.WriteString(skeletonLead(in))
	for _, f := range in.Facts {
		b.WriteString(" ")
		b.WriteString(f.Value)
	}
	if in.Intent == model.IntentPacking {
		b.WriteString(" Pack with that in mind, layers cover the swing between those highs and lows.")
	}
	return b.String()
}

func skeletonLead(in Input) string {
	city := in.Slots[model.SlotCity]
	month := in.Slots[model.SlotMonth]
	switch in.Intent {
	case model.IntentWeather:
		return fmt.Sprintf("Here is the typical picture for %s:", placeOrTrip(city, month))
	case model.IntentPacking:
		return fmt.Sprintf("Packing for %s?", placeOrTrip(city, month))
	case model.IntentAttractions:
		if city != "" {
			return fmt.Sprintf("Worth your time in %s:", city)
		}
		return "Worth your time there:"
	case model.IntentFlights:
		return "Here is who flies that route:"
	case model.IntentDestinations:
		if in.Style == model.StyleResearch {
			return "Here is what a quick look turned up:"
		}
		return "A few ideas that fit:"
	default:
		return "Here is what I found:"
	}
}

func placeOrTrip(city, month string) string {
	switch {
	case city != "" && month != "":
		return city + " in " + month
	case city != "":
		return city
	default:
		return "your trip"
	}
}

// apology covers the dispatched-but-empty-handed case. Deliberately free of
// any source-attribution wording.
func apology(intent model.Intent) string {
	topic := map[model.Intent]string{
		model.IntentWeather:      "my weather data",
		model.IntentPacking:      "my weather data",
		model.IntentAttractions:  "my attractions guide",
		model.IntentFlights:      "my flight data",
		model.IntentDestinations: "my destination notes",
	}[intent]
	if topic == "" {
		topic = "my travel data"
	}
	return fmt.Sprintf("I couldn't reach %s just now, so I'd rather not guess. Ask me again in a moment, or point me at another part of the trip.", topic)
}

// Citations derives source attributions from the facts used this turn.
// Web results cite their URL, catalog facts cite the tool that served them.
func Citations(facts []model.FactUsed) []string {
	seen := make(map[string]struct{}, len(facts))
	var out []string
	for _, f := range facts {
		cite := f.Source
		if strings.HasPrefix(f.Key, "http://") || strings.HasPrefix(f.Key, "https://") {
			cite = f.Key
		}
		if _, dup := seen[cite]; dup {
			continue
		}
		seen[cite] = struct{}{}
		out = append(out, cite)
	}
	return out
}

// looksLikePlanEcho recognizes a writer reply that is actually a routing
// payload. The writer is told to answer in prose; a JSON object carrying
// plan keys must never reach the user.
func looksLikePlanEcho(content string) bool {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return false
	}
	for _, key := range []string{"route", "tool_calls", "intent"} {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

const mixedLanguageNote = "I noticed part of your message is in another language; I work best in English, so tell me if I missed a nuance."

// CapabilityReply answers "what can you do".
func (c *Composer) CapabilityReply() string {
	return fmt.Sprintf("I'm %s, a travel assistant. I can tell you the typical weather for a city, what to pack, what's worth seeing, who flies a route, and where to go for a given month or budget. I remember details like your city and dates as we chat, and /why shows how I put an answer together.", c.assistantName)
}

// NudgeReply steers an unclassifiable message back on topic.
func NudgeReply() string {
	return "I'm not quite sure what you're after. I can help with weather, packing, things to do, airline routes, or destination ideas. Which part of the trip should we tackle?"
}

// RedirectReply handles clearly off-topic content.
func RedirectReply() string {
	return "That one is outside my wheelhouse. Travel, though, I'm good at: typical weather, packing, attractions, flights between cities, or where to go next. Want to point me at one of those?"
}

// DeclineReply acknowledges a refused consent request.
func DeclineReply() string {
	return "No problem, I'll skip the web lookup. Happy to help with anything else about the trip."
}

// HelpReply is the fixed response to empty input.
func HelpReply() string {
	return "Hi! I'm a travel assistant. Ask me things like \"Weather in Paris in March?\", \"What should I pack for Tokyo?\", or \"What's worth seeing in Rome?\" I'll remember details like the city and dates as we go."
}

// ClarifyReply wraps the single clarifying question for this turn.
func ClarifyReply(question string) string {
	return "Happy to help with that. " + question
}

// BuildReceipt assembles the audit trail persisted for /why.
func BuildReceipt(threadID string, intent model.Intent, facts []model.FactUsed, decisions []model.Decision, budget model.Budget) *model.Receipt {
	return &model.Receipt{
		ThreadID:  threadID,
		Intent:    intent,
		Facts:     facts,
		Decisions: decisions,
		Budget:    budget,
		CreatedAt: time.Now(),
	}
}
