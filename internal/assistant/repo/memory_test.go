package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk-core/server/internal/assistant/model"
)

func TestMemoryStoreSlotsCopyOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryThreadStore()

	in := map[string]string{"city": "Paris"}
	require.NoError(t, s.SetSlots(ctx, "t1", in))
	in["city"] = "mutated"

	got, err := s.GetSlots(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Paris", got["city"], "store must not alias caller maps")

	got["city"] = "mutated again"
	again, err := s.GetSlots(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Paris", again["city"])
}

func TestMemoryStoreMessagesOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryThreadStore()

	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, s.AppendMessage(ctx, "t1", model.ThreadMessage{
			Role: "user", Content: content, At: time.Now(),
		}))
	}

	msgs, err := s.Messages(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "three", msgs[2].Content)
}

func TestMemoryStoreJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryThreadStore()

	in := model.Receipt{ThreadID: "t1", Intent: model.IntentWeather}
	require.NoError(t, s.SetJSON(ctx, "t1", model.DocReceipts, in))

	var out model.Receipt
	ok, err := s.GetJSON(ctx, "t1", model.DocReceipts, &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.IntentWeather, out.Intent)

	ok, err = s.GetJSON(ctx, "t1", model.DocVerification, &out)
	require.NoError(t, err)
	assert.False(t, ok, "missing doc reads as absent, not as an error")
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryThreadStore()

	require.NoError(t, s.SetSlots(ctx, "t1", map[string]string{"city": "Rome"}))
	require.NoError(t, s.AppendMessage(ctx, "t1", model.ThreadMessage{Role: "user", Content: "hi"}))
	require.NoError(t, s.Clear(ctx, "t1"))

	slots, err := s.GetSlots(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, slots)

	msgs, err := s.Messages(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
