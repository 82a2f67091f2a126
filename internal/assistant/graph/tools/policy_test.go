package tools

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenHashEmbeddingDeterministicAndNormalized(t *testing.T) {
	ctx := context.Background()

	a, err := tokenHashEmbedding(ctx, "Visa rules for Thailand entry")
	require.NoError(t, err)
	b, err := tokenHashEmbedding(ctx, "Visa rules for Thailand entry")
	require.NoError(t, err)
	assert.Equal(t, a, b, "same text must embed identically across calls")

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-4, "vectors are L2-normalized")

	c, err := tokenHashEmbedding(ctx, "hurricane season in the Caribbean")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestTokenHashEmbeddingBlankTextStillUnitVector(t *testing.T) {
	vec, err := tokenHashEmbedding(context.Background(), "   ")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6, "blank input must not produce a zero vector")
}

func TestTravelAdvisoryRanksMonsoonNoticeFirst(t *testing.T) {
	raw := invoke(t, advisoryTool(t), `{"query":"monsoon heavy rain"}`)

	var out TravelAdvisoryOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))

	require.True(t, out.OK)
	require.NotEmpty(t, out.Notices)
	assert.Equal(t, "Southeast Asia", out.Notices[0].Region)
	assert.Len(t, out.Notices, 2, "limit defaults to 2")
}

func TestTravelAdvisoryClampsLimitToCorpusSize(t *testing.T) {
	raw := invoke(t, advisoryTool(t), `{"query":"entry requirements","limit":50}`)

	var out TravelAdvisoryOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))

	require.True(t, out.OK)
	assert.Len(t, out.Notices, len(advisoryNotices), "an oversized limit returns the whole corpus, not an error")
}

func TestTravelAdvisoryRejectsEmptyQuery(t *testing.T) {
	inv, ok := advisoryTool(t).(tool.InvokableTool)
	require.True(t, ok)

	_, err := inv.InvokableRun(context.Background(), `{"query":"  "}`)
	assert.Error(t, err)
}

func advisoryTool(t *testing.T) tool.BaseTool {
	t.Helper()
	bt, err := createTravelAdvisoryTool(context.Background())
	require.NoError(t, err)
	return bt
}
