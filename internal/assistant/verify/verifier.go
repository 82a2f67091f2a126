package verify

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

const (
	defaultPollAttempts = 3
	defaultPollDelay    = 150 * time.Millisecond
)

// Verifier runs the post-answer self-check: does the drafted reply actually
// follow from the facts retrieved this turn. It is strictly best-effort;
// every failure path degrades to "no verification available" and the reply
// ships regardless.
type Verifier struct {
	chatModel einomodel.BaseChatModel
	modelName string
	store     model.ThreadStore
	attempts  int
	delay     time.Duration
	usage     model.UsageHook
	sleep     func(time.Duration)
}

// New builds a verifier. chatModel may be nil, which disables checking
// entirely. store is polled for late-arriving receipt facts.
func New(chatModel einomodel.BaseChatModel, modelName string, store model.ThreadStore, cfg model.VerifierConfig, usage model.UsageHook) *Verifier {
	attempts := cfg.PollAttempts
	if attempts <= 0 {
		attempts = defaultPollAttempts
	}
	delay, err := time.ParseDuration(cfg.PollDelay)
	if err != nil || delay <= 0 {
		delay = defaultPollDelay
	}
	return &Verifier{
		chatModel: chatModel,
		modelName: modelName,
		store:     store,
		attempts:  attempts,
		delay:     delay,
		usage:     usage,
		sleep:     time.Sleep,
	}
}

// Input carries everything the self-check reads.
type Input struct {
	ThreadID        string
	Reply           string
	Facts           []model.FactUsed
	Citations       []string
	RecentUserTurns []string
	SlotsBefore     map[string]string
	LastIntent      model.Intent
}

// Check grounds the reply against the facts used. A nil return means no
// verification is available; it never carries an error to the caller.
func (v *Verifier) Check(ctx context.Context, in Input) (res *model.VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			logx.Warn().Any("panic", r).Msg("verify: check panicked")
			res = nil
		}
	}()

	if v.chatModel == nil {
		return nil
	}

	facts := in.Facts
	if len(facts) == 0 && factDependent(in.LastIntent) {
		facts = v.lateFacts(ctx, in.ThreadID)
	}
	if len(facts) == 0 && len(in.Citations) > 0 {
		facts = factsFromCitations(in.Citations)
	}

	msgs, err := prompts.RenderVerify(ctx, in.Reply, facts, in.RecentUserTurns, in.SlotsBefore, in.LastIntent)
	if err != nil {
		logx.Debug().Err(err).Msg("verify: render failed")
		return nil
	}
	out, err := v.chatModel.Generate(ctx, msgs)
	if err != nil || out == nil {
		logx.Debug().Err(err).Msg("verify: model call failed")
		return nil
	}
	if v.usage != nil && out.ResponseMeta != nil {
		v.usage(ctx, v.modelName, out.ResponseMeta.Usage)
	}

	res, err = parseVerdict(out.Content)
	if err != nil {
		logx.Debug().Err(err).Str("content", out.Content).Msg("verify: unparseable verdict")
		return nil
	}
	res.CheckedAt = time.Now()
	return res
}

// lateFacts re-polls the receipts document. Receipts are persisted right
// around reply time, so a short wait can surface facts the first read missed.
func (v *Verifier) lateFacts(ctx context.Context, threadID string) []model.FactUsed {
	if v.store == nil || threadID == "" {
		return nil
	}
	for i := 0; i < v.attempts; i++ {
		if i > 0 {
			v.sleep(v.delay)
		}
		var r model.Receipt
		ok, err := v.store.GetJSON(ctx, threadID, model.DocReceipts, &r)
		if err != nil {
			logx.Debug().Err(err).Msg("verify: receipts poll failed")
			return nil
		}
		if ok && len(r.Facts) > 0 {
			return r.Facts
		}
	}
	return nil
}

// factDependent reports whether the intent's answers stand on retrieved
// data, making an empty facts list suspicious rather than expected.
func factDependent(intent model.Intent) bool {
	switch intent {
	case model.IntentFlights, model.IntentDestinations, model.IntentWebSearch:
		return true
	}
	return false
}

// factsFromCitations synthesizes minimal stand-in facts so the check can
// still reason about sourcing when only citations survived.
func factsFromCitations(citations []string) []model.FactUsed {
	out := make([]model.FactUsed, 0, len(citations))
	for _, c := range citations {
		out = append(out, model.FactUsed{Source: "citation", Key: c, Value: c})
	}
	return out
}

type verdictPayload struct {
	Verdict       string             `json:"verdict"`
	Notes         []string           `json:"notes"`
	RevisedAnswer string             `json:"revised_answer"`
	Scores        map[string]float64 `json:"scores"`
}

func parseVerdict(content string) (*model.VerificationResult, error) {
	trimmed := strings.TrimSpace(content)
	var p verdictPayload
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		recovered, ok := extractJSONObject(trimmed)
		if !ok {
			return nil, fmt.Errorf("verify: no JSON object in output: %w", err)
		}
		if err := json.Unmarshal([]byte(recovered), &p); err != nil {
			return nil, fmt.Errorf("verify: recovered object invalid: %w", err)
		}
	}
	switch p.Verdict {
	case model.VerdictPass, model.VerdictWarn, model.VerdictFail:
	default:
		return nil, fmt.Errorf("verify: unknown verdict %q", p.Verdict)
	}
	return &model.VerificationResult{
		Verdict:       p.Verdict,
		Notes:         p.Notes,
		RevisedAnswer: strings.TrimSpace(p.RevisedAnswer),
		Scores:        p.Scores,
	}, nil
}

// extractJSONObject pulls the outermost {...} span from text that wraps the
// object in prose or a markdown fence.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
