package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/tripdesk-core/server/internal/assistant/graph/prompts"
	"github.com/tripdesk-core/server/internal/assistant/model"
	"github.com/tripdesk-core/server/internal/assistant/slots"
)

// errEchoedPlan marks the degenerate case where the classifier call came
// back with a routing/planning payload instead of a classification. The
// cascade treats it like any other tier failure and falls through; it must
// never be executed as if it were a plan.
var errEchoedPlan = errors.New("classifier echoed a planning payload")

var errNoChatModel = errors.New("no chat model configured")

// Parser safety caps: a misbehaving provider must not make us chew through
// megabytes of output.
const (
	maxClassifyContentLen = 64 * 1024
	maxClassifySlots      = 16
)

// LLMClassifier is the second cascade tier: a chat-model call that returns
// a single JSON object.
type LLMClassifier struct {
	chatModel einomodel.BaseChatModel
	modelName string
	timeout   time.Duration
	usage     model.UsageHook
}

func NewLLMClassifier(chatModel einomodel.BaseChatModel, modelName string, timeout time.Duration, usage model.UsageHook) *LLMClassifier {
	return &LLMClassifier{
		chatModel: chatModel,
		modelName: modelName,
		timeout:   timeout,
		usage:     usage,
	}
}

// Classify asks the model and parses its JSON. Every failure mode (render,
// timeout, provider error, malformed output, echoed plan, panic) surfaces
// as an error for the cascade to fall through on.
func (c *LLMClassifier) Classify(ctx context.Context, text string, prior Prior) (res *model.ClassificationResult, err error) {
	if c == nil || c.chatModel == nil {
		return nil, errNoChatModel
	}
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("llm classify panic: %v", r)
		}
	}()

	msgs, err := prompts.RenderClassify(ctx, text, prior.ContextText)
	if err != nil {
		return nil, err
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.chatModel.Generate(callCtx, msgs)
	if err != nil {
		return nil, fmt.Errorf("llm classify: %w", err)
	}
	if c.usage != nil && out != nil && out.ResponseMeta != nil {
		c.usage(ctx, c.modelName, out.ResponseMeta.Usage)
	}
	if out == nil {
		return nil, fmt.Errorf("llm classify: empty response")
	}
	return parseClassification(out.Content)
}

type llmClassification struct {
	ContentType   string            `json:"content_type"`
	Intent        string            `json:"intent"`
	Confidence    float64           `json:"confidence"`
	Slots         map[string]string `json:"slots"`
	MixedLanguage bool              `json:"mixed_language"`
}

func parseClassification(content string) (*model.ClassificationResult, error) {
	if len(content) > maxClassifyContentLen {
		return nil, fmt.Errorf("classifier output too large: %d bytes", len(content))
	}

	payload := strings.TrimSpace(content)
	var generic map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &generic); err != nil {
		// Recover an embedded object from prose or code fences before
		// giving up.
		payload = extractJSONObject(payload)
		if payload == "" {
			return nil, fmt.Errorf("no JSON object in classifier output")
		}
		if err := json.Unmarshal([]byte(payload), &generic); err != nil {
			return nil, fmt.Errorf("parse classifier output: %w", err)
		}
	}
	if looksLikePlanPayload(generic) {
		return nil, errEchoedPlan
	}

	var wire llmClassification
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, fmt.Errorf("decode classifier output: %w", err)
	}
	if !model.KnownIntent(wire.Intent) {
		return nil, fmt.Errorf("classifier returned unknown intent %q", wire.Intent)
	}

	res := &model.ClassificationResult{
		ContentType:   model.ContentType(wire.ContentType),
		Intent:        model.Intent(wire.Intent),
		Confidence:    clamp01(wire.Confidence),
		MixedLanguage: wire.MixedLanguage,
		Tier:          TierLLM,
	}
	if !model.KnownContentType(wire.ContentType) {
		res.ContentType = model.ContentTravel
	}

	n := 0
	for k, v := range wire.Slots {
		if n >= maxClassifySlots {
			break
		}
		v = strings.TrimSpace(v)
		if model.ReservedSlot(k) || v == "" {
			continue
		}
		// A month name arriving as a city candidate is always wrong.
		if (k == model.SlotCity || k == model.SlotOriginCity || k == model.SlotDestinationCity) && slots.IsCalendarMonth(v) {
			continue
		}
		res.SetSlot(k, v)
		n++
	}

	return res, nil
}

// looksLikePlanPayload recognizes a routing/tool payload shape. A plan has
// route/tool_calls keys; a classification has intent/confidence.
func looksLikePlanPayload(obj map[string]json.RawMessage) bool {
	if _, ok := obj["route"]; ok {
		return true
	}
	if _, ok := obj["tool_calls"]; ok {
		return true
	}
	_, hasTool := obj["tool"]
	_, hasIntent := obj["intent"]
	return hasTool && !hasIntent
}

// extractJSONObject returns the first-'{' .. last-'}' span, which survives
// code fences and leading prose.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
