package classify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk-core/server/internal/assistant/model"
)

// scriptedChatModel plays back canned replies; the last reply repeats.
type scriptedChatModel struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
}

func (m *scriptedChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.replies) == 0 {
		return nil, errors.New("scripted model: out of replies")
	}
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: reply,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 40, CompletionTokens: 12, TotalTokens: 52},
		},
	}, nil
}

func (m *scriptedChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("scripted model: streaming not supported")
}

func (m *scriptedChatModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestCascade(fake einomodel.BaseChatModel) *Cascade {
	var llm *LLMClassifier
	if fake != nil {
		llm = NewLLMClassifier(fake, "test-model", time.Second, nil)
	}
	c := NewCascade(NewLocalClassifier(fixedNow), llm, NewRuleClassifier(), NewCache(16, time.Minute), 0.65, 0.6)
	c.now = fixedNow
	return c
}

func TestCascadeLocalTierWinsWithoutModelCall(t *testing.T) {
	fake := &scriptedChatModel{err: errors.New("must not be called")}
	c := newTestCascade(fake)

	res := c.Classify(context.Background(), "What's the weather in Paris today?", Prior{})

	assert.Equal(t, model.IntentWeather, res.Intent)
	assert.Equal(t, TierLocal, res.Tier)
	assert.Equal(t, "Paris", res.Slot(model.SlotCity))
	assert.Zero(t, fake.callCount())
}

func TestCascadeFallsThroughToModelTier(t *testing.T) {
	fake := &scriptedChatModel{replies: []string{
		`{"content_type":"travel","intent":"destinations","confidence":0.82,"slots":{}}`,
	}}
	c := newTestCascade(fake)

	res := c.Classify(context.Background(), "Is it worth going there at that time of year?", Prior{})

	assert.Equal(t, model.IntentDestinations, res.Intent)
	assert.Equal(t, TierLLM, res.Tier)
	assert.InDelta(t, 0.82, res.Confidence, 1e-9)
	assert.Equal(t, 1, fake.callCount())
}

func TestCascadeOverlaysLocalExtractionOnModelResult(t *testing.T) {
	fake := &scriptedChatModel{replies: []string{
		`{"content_type":"travel","intent":"destinations","confidence":0.8,"slots":{}}`,
	}}
	c := newTestCascade(fake)

	res := c.Classify(context.Background(), "Thinking about Kyoto at that time of year, any thoughts?", Prior{})

	assert.Equal(t, TierLLM, res.Tier)
	assert.Equal(t, "Kyoto", res.Slot(model.SlotCity), "lexicon extraction should survive a model win")
}

func TestCascadeEchoedPlanFallsThroughToRules(t *testing.T) {
	fake := &scriptedChatModel{replies: []string{
		`{"route":"dispatch","tool_calls":[{"tool":"weather"}]}`,
	}}
	c := newTestCascade(fake)

	res := c.Classify(context.Background(), "Is the climate nice there?", Prior{})

	assert.Equal(t, model.IntentWeather, res.Intent)
	assert.Equal(t, TierRules, res.Tier)
}

func TestCascadeModelErrorFallsThroughToRules(t *testing.T) {
	fake := &scriptedChatModel{err: errors.New("upstream 500")}
	c := newTestCascade(fake)

	res := c.Classify(context.Background(), "Is the climate nice there?", Prior{})

	assert.Equal(t, model.IntentWeather, res.Intent)
	assert.Equal(t, TierRules, res.Tier)
	assert.Equal(t, 1, fake.callCount())
}

func TestCascadeBottomsOutAtLowConfidenceUnknown(t *testing.T) {
	fake := &scriptedChatModel{err: errors.New("upstream 500")}
	c := newTestCascade(fake)

	res := c.Classify(context.Background(), "hmm okay then", Prior{})

	assert.Equal(t, model.IntentUnknown, res.Intent)
	assert.Less(t, res.Confidence, 0.4)
}

func TestCascadeCachesModelVerdicts(t *testing.T) {
	fake := &scriptedChatModel{replies: []string{
		`{"content_type":"travel","intent":"destinations","confidence":0.82,"slots":{}}`,
	}}
	c := newTestCascade(fake)
	text := "Is it worth going there at that time of year?"

	first := c.Classify(context.Background(), text, Prior{})
	second := c.Classify(context.Background(), text, Prior{})

	assert.Equal(t, 1, fake.callCount(), "second call must be served from cache")
	assert.Equal(t, first.Intent, second.Intent)
	assert.Equal(t, 1, c.cache.Len())
}

func TestCascadeDoesNotCacheLowConfidenceModelVerdicts(t *testing.T) {
	fake := &scriptedChatModel{replies: []string{
		`{"content_type":"travel","intent":"weather","confidence":0.3,"slots":{}}`,
	}}
	c := newTestCascade(fake)

	res := c.Classify(context.Background(), "Is the climate nice there?", Prior{})

	assert.Equal(t, TierRules, res.Tier, "a low-confidence model verdict falls through")
	assert.Zero(t, c.cache.Len())
}

func TestCascadeResolvesImmediateTimeWithoutModel(t *testing.T) {
	fake := &scriptedChatModel{err: errors.New("must not be called")}
	c := newTestCascade(fake)

	res := c.Classify(context.Background(), "What should I pack right now?", Prior{})

	assert.Equal(t, model.IntentPacking, res.Intent)
	assert.Equal(t, "March", res.Slot(model.SlotMonth))
	assert.Zero(t, fake.callCount())
}

func TestCascadeFlagsMixedScripts(t *testing.T) {
	c := newTestCascade(nil)

	res := c.Classify(context.Background(), "weather in 東京 please", Prior{})

	assert.Equal(t, model.IntentWeather, res.Intent)
	assert.True(t, res.MixedLanguage)
}

func TestCascadeEmptyTextIsUnknown(t *testing.T) {
	c := newTestCascade(nil)

	res := c.Classify(context.Background(), "   ", Prior{})

	assert.Equal(t, model.IntentUnknown, res.Intent)
	assert.Less(t, res.Confidence, 0.4)
}

func TestLLMClassifierReportsUsage(t *testing.T) {
	var gotModel string
	var gotPrompt, gotCompletion int
	hook := func(_ context.Context, modelName string, usage *schema.TokenUsage) {
		gotModel = modelName
		if usage != nil {
			gotPrompt = usage.PromptTokens
			gotCompletion = usage.CompletionTokens
		}
	}
	fake := &scriptedChatModel{replies: []string{
		`{"content_type":"travel","intent":"weather","confidence":0.9,"slots":{"city":"Paris"}}`,
	}}
	llm := NewLLMClassifier(fake, "test-model", time.Second, hook)

	res, err := llm.Classify(context.Background(), "weather in Paris", Prior{})
	require.NoError(t, err)

	assert.Equal(t, model.IntentWeather, res.Intent)
	assert.Equal(t, "test-model", gotModel)
	assert.Equal(t, 40, gotPrompt)
	assert.Equal(t, 12, gotCompletion)
}

func TestParseClassificationRecoversEmbeddedJSON(t *testing.T) {
	content := "Here is the classification:\n```json\n{\"content_type\":\"travel\",\"intent\":\"weather\",\"confidence\":0.9,\"slots\":{\"city\":\"Paris\"}}\n```"

	res, err := parseClassification(content)
	require.NoError(t, err)

	assert.Equal(t, model.IntentWeather, res.Intent)
	assert.Equal(t, "Paris", res.Slot(model.SlotCity))
}

func TestParseClassificationRejectsMonthAsCity(t *testing.T) {
	res, err := parseClassification(`{"content_type":"travel","intent":"weather","confidence":0.9,"slots":{"city":"March","month":"March"}}`)
	require.NoError(t, err)

	assert.Empty(t, res.Slot(model.SlotCity))
	assert.Equal(t, "March", res.Slot(model.SlotMonth))
}

func TestParseClassificationRejectsUnknownIntentEnum(t *testing.T) {
	_, err := parseClassification(`{"content_type":"travel","intent":"book_hotel","confidence":0.9}`)
	assert.Error(t, err)
}

func TestParseClassificationDetectsPlanEcho(t *testing.T) {
	_, err := parseClassification(`{"route":"clarify","question":"Which city?"}`)
	assert.ErrorIs(t, err, errEchoedPlan)
}

func TestParseClassificationClampsConfidence(t *testing.T) {
	res, err := parseClassification(`{"content_type":"travel","intent":"weather","confidence":1.7}`)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
}
