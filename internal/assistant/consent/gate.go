package consent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/tripdesk-core/server/internal/assistant/graph/prompts"
	"github.com/tripdesk-core/server/internal/assistant/model"
	"github.com/tripdesk-core/server/internal/assistant/slots"
	logx "github.com/tripdesk-core/server/pkg/logger"
)

// Outcome is the gate's reading of a user reply while consent is pending.
type Outcome string

const (
	OutcomeAccept  Outcome = "accept"
	OutcomeDecline Outcome = "decline"
	OutcomeUnclear Outcome = "unclear"
)

var (
	acceptRe  = regexp.MustCompile(`(?i)^(yes|yeah|yep|yup|sure|ok|okay|please do|go ahead|go for it|do it|sounds good|affirmative)\b`)
	declineRe = regexp.MustCompile(`(?i)^(no|nope|nah|don't|do not|negative|stop|skip it|never mind|nevermind)\b`)
)

// Gate tracks whether a thread is waiting on the user's permission to run a
// side-effecting lookup, and resolves the reply once one arrives. The
// pending flag and the deferred query live in the thread's reserved slots,
// so they survive process restarts along with the rest of the memory.
type Gate struct {
	memory    *slots.Memory
	chatModel einomodel.BaseChatModel
	modelName string
	usage     model.UsageHook
}

// New builds a gate. chatModel may be nil; the gate then relies on the
// pattern tier alone and reads everything else as unclear.
func New(memory *slots.Memory, chatModel einomodel.BaseChatModel, modelName string, usage model.UsageHook) *Gate {
	return &Gate{memory: memory, chatModel: chatModel, modelName: modelName, usage: usage}
}

// Request arms the gate: the thread's next turn is interpreted as a consent
// reply, and query is what gets dispatched on acceptance.
func (g *Gate) Request(ctx context.Context, threadID, query string) error {
	return g.memory.SetReserved(ctx, threadID, map[string]string{
		model.SlotKeyConsentAwaiting: "true",
		model.SlotKeyConsentQuery:    query,
	})
}

// Pending reports whether the gate is armed and returns the deferred query.
func (g *Gate) Pending(ctx context.Context, threadID string) (bool, string) {
	v, err := g.memory.Reserved(ctx, threadID, model.SlotKeyConsentAwaiting)
	if err != nil || v != "true" {
		return false, ""
	}
	query, err := g.memory.Reserved(ctx, threadID, model.SlotKeyConsentQuery)
	if err != nil {
		return true, ""
	}
	return true, query
}

// Clear disarms the gate and drops the deferred query.
func (g *Gate) Clear(ctx context.Context, threadID string) error {
	return g.memory.SetReserved(ctx, threadID, map[string]string{
		model.SlotKeyConsentAwaiting: "",
		model.SlotKeyConsentQuery:    "",
	})
}

// Resolve reads message as a consent reply. Accept and decline both disarm
// the gate; unclear leaves it armed so the turn can fall through to normal
// classification. The returned query is the deferred one, valid on accept.
func (g *Gate) Resolve(ctx context.Context, threadID, message string) (Outcome, string, error) {
	awaiting, query := g.Pending(ctx, threadID)
	if !awaiting {
		return OutcomeUnclear, "", nil
	}

	out := matchOutcome(message)
	if out == OutcomeUnclear && g.chatModel != nil {
		out = g.resolveWithModel(ctx, query, message)
	}

	if out != OutcomeUnclear {
		if err := g.Clear(ctx, threadID); err != nil {
			return out, query, fmt.Errorf("clear consent state: %w", err)
		}
	}
	return out, query, nil
}

// matchOutcome is the cheap first tier: anchored yes/no patterns.
func matchOutcome(message string) Outcome {
	trimmed := strings.TrimSpace(message)
	switch {
	case acceptRe.MatchString(trimmed):
		return OutcomeAccept
	case declineRe.MatchString(trimmed):
		return OutcomeDecline
	default:
		return OutcomeUnclear
	}
}

type consentVerdict struct {
	Answer string `json:"answer"`
}

// resolveWithModel asks the chat model for a yes/no/unclear verdict. Any
// failure reads as unclear; consent is never granted on a guess.
func (g *Gate) resolveWithModel(ctx context.Context, query, message string) Outcome {
	msgs, err := prompts.RenderConsentResolve(ctx, g.pendingQuestion(query), message)
	if err != nil {
		logx.Debug().Err(err).Msg("consent: render failed")
		return OutcomeUnclear
	}
	out, err := g.chatModel.Generate(ctx, msgs)
	if err != nil || out == nil {
		logx.Debug().Err(err).Msg("consent: model call failed")
		return OutcomeUnclear
	}
	if g.usage != nil && out.ResponseMeta != nil {
		g.usage(ctx, g.modelName, out.ResponseMeta.Usage)
	}

	payload := strings.TrimSpace(out.Content)
	if start, end := strings.Index(payload, "{"), strings.LastIndex(payload, "}"); start >= 0 && end > start {
		payload = payload[start : end+1]
	}
	var verdict consentVerdict
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		logx.Debug().Err(err).Msg("consent: unparseable verdict")
		return OutcomeUnclear
	}
	switch strings.ToLower(strings.TrimSpace(verdict.Answer)) {
	case "yes":
		return OutcomeAccept
	case "no":
		return OutcomeDecline
	default:
		return OutcomeUnclear
	}
}

func (g *Gate) pendingQuestion(query string) string {
	if query == "" {
		return "a live web search"
	}
	return fmt.Sprintf("a live web search for %q", query)
}
