package conversations

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk-core/server/internal/assistant/model"
	"github.com/tripdesk-core/server/internal/assistant/repo"
)

func newTestManager(maxTurns int) (*Manager, model.ThreadStore) {
	store := repo.NewMemoryThreadStore()
	var cfg model.ConversationConfig
	cfg.History.MaxTurns = maxTurns
	return NewManager(store, cfg), store
}

func TestRecordUserTurnFirstMessageHasNoContext(t *testing.T) {
	m, store := newTestManager(6)
	ctx := context.Background()

	priorCtx, err := m.RecordUserTurn(ctx, "t1", "Weather in Paris today?")
	require.NoError(t, err)

	assert.Empty(t, priorCtx)

	history, err := store.Messages(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, "Weather in Paris today?", history[0].Content)
}

func TestRecordUserTurnBuildsContextFromPriorTurns(t *testing.T) {
	m, _ := newTestManager(6)
	ctx := context.Background()

	_, err := m.RecordUserTurn(ctx, "t1", "Weather in Paris in March?")
	require.NoError(t, err)
	require.NoError(t, m.SaveAssistantReply(ctx, "t1", "Mild, around 12°C."))

	priorCtx, err := m.RecordUserTurn(ctx, "t1", "What should I pack?")
	require.NoError(t, err)

	assert.Contains(t, priorCtx, "<conversation_context>")
	assert.Contains(t, priorCtx, "User: Weather in Paris in March?")
	assert.Contains(t, priorCtx, "Assistant: Mild, around 12°C.")
	assert.NotContains(t, priorCtx, "What should I pack?", "the current message is not part of its own context")
}

func TestContextWindowKeepsOnlyRecentTurns(t *testing.T) {
	m, _ := newTestManager(3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := m.RecordUserTurn(ctx, "t1", fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}

	priorCtx, err := m.RecordUserTurn(ctx, "t1", "question 6")
	require.NoError(t, err)

	assert.NotContains(t, priorCtx, "question 2")
	assert.Contains(t, priorCtx, "question 5")
}

func TestSaveAssistantReplySkipsBlankContent(t *testing.T) {
	m, store := newTestManager(6)
	ctx := context.Background()

	require.NoError(t, m.SaveAssistantReply(ctx, "t1", "   "))

	history, err := store.Messages(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRecentUserTurnsFiltersAndTrims(t *testing.T) {
	m, _ := newTestManager(6)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_, err := m.RecordUserTurn(ctx, "t1", fmt.Sprintf("question %d", i))
		require.NoError(t, err)
		require.NoError(t, m.SaveAssistantReply(ctx, "t1", fmt.Sprintf("answer %d", i)))
	}

	turns, err := m.RecentUserTurns(ctx, "t1", 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"question 3", "question 4"}, turns)
}
