package classify

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/tripdesk-core/server/internal/assistant/model"
	"github.com/tripdesk-core/server/internal/assistant/slots"
	logx "github.com/tripdesk-core/server/pkg/logger"
)

// Tier tags recorded on every classification so receipts can say which
// stage produced the answer.
const (
	TierLocal = "local"
	TierLLM   = "llm"
	TierRules = "rules"
	TierNone  = "none"
)

// Prior carries cross-turn context into a classification: the last routed
// intent, the thread's accumulated slots, and a rendered transcript window
// for the model tier.
type Prior struct {
	LastIntent  model.Intent
	Slots       map[string]string
	ContextText string
}

// Cascade runs the three classification tiers in cost order: lexicon
// scoring, then a model call, then keyword rules. Each tier must clear its
// own confidence bar to win; a tier that errors or scores low falls
// through silently. The caller always gets a usable result, at worst the
// low-confidence unknown.
type Cascade struct {
	local *LocalClassifier
	llm   *LLMClassifier
	rules *RuleClassifier
	cache *Cache

	localBar float64
	llmBar   float64
	rulesBar float64

	now func() time.Time
}

func NewCascade(local *LocalClassifier, llm *LLMClassifier, rules *RuleClassifier, cache *Cache, localBar, llmBar float64) *Cascade {
	if localBar <= 0 {
		localBar = 0.65
	}
	if llmBar <= 0 {
		llmBar = 0.6
	}
	return &Cascade{
		local:    local,
		llm:      llm,
		rules:    rules,
		cache:    cache,
		localBar: localBar,
		llmBar:   llmBar,
		rulesBar: 0.5,
		now:      time.Now,
	}
}

// Classify never fails: every tier error is logged and swallowed, and the
// fallthrough chain bottoms out at the unknown result.
func (c *Cascade) Classify(ctx context.Context, text string, prior Prior) *model.ClassificationResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return model.Unclassified()
	}
	mixed := hasMixedScripts(trimmed)

	// Immediate-time phrasing resolves to the current month right here,
	// before any tier spends budget on it.
	baseMonth := ""
	if slots.HasImmediateTime(trimmed) {
		baseMonth = c.now().Month().String()
	}

	// Tier 1: lexicon. Its entity extraction is kept as a baseline even
	// when the score is too low to win.
	localRes, err := c.local.Classify(trimmed, prior)
	if err != nil {
		logx.Debug().Err(err).Msg("classify: local tier error")
		localRes = nil
	}
	if localRes != nil && localRes.Confidence >= c.localBar {
		return c.finish(localRes, nil, mixed, baseMonth)
	}

	// Tier 2: model call, fronted by the per-message cache.
	if c.cache != nil {
		if hit, ok := c.cache.Get(trimmed); ok {
			return c.finish(hit, localRes, mixed, baseMonth)
		}
	}
	if c.llm != nil {
		llmRes, err := c.llm.Classify(ctx, trimmed, prior)
		switch {
		case errors.Is(err, errEchoedPlan):
			logx.Debug().Msg("classify: model echoed a plan, falling through")
		case err != nil:
			logx.Debug().Err(err).Msg("classify: llm tier error")
		case llmRes.Confidence >= c.llmBar:
			if c.cache != nil {
				c.cache.Put(trimmed, llmRes)
			}
			return c.finish(llmRes, localRes, mixed, baseMonth)
		}
	}

	// Tier 3: keyword rules.
	if rulesRes := c.rules.Classify(trimmed, prior); rulesRes.Confidence >= c.rulesBar {
		return c.finish(rulesRes, localRes, mixed, baseMonth)
	}

	return c.finish(model.Unclassified(), localRes, mixed, baseMonth)
}

// finish overlays the baseline lexicon extraction and the pre-resolved
// month onto the winning result. The winner's own slots take precedence.
func (c *Cascade) finish(win, baseline *model.ClassificationResult, mixed bool, baseMonth string) *model.ClassificationResult {
	if baseline != nil && baseline != win {
		for k, v := range baseline.Slots {
			if win.Slot(k) == "" {
				win.SetSlot(k, v)
			}
		}
	}
	if baseMonth != "" && win.Slot(model.SlotMonth) == "" {
		win.SetSlot(model.SlotMonth, baseMonth)
	}
	win.MixedLanguage = win.MixedLanguage || mixed
	return win
}

// hasMixedScripts reports whether the text carries letters from both the
// Latin script and some other script, e.g. an English sentence with a Thai
// or Japanese place name in it.
func hasMixedScripts(s string) bool {
	latin, other := false, false
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.Is(unicode.Latin, r) {
			latin = true
		} else {
			other = true
		}
		if latin && other {
			return true
		}
	}
	return false
}
