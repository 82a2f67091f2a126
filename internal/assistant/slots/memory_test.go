package slots

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk-core/server/internal/assistant/model"
	"github.com/tripdesk-core/server/internal/assistant/repo"
)

func TestMergeKeepsPriorAndAcceptsNew(t *testing.T) {
	prior := map[string]string{"city": "Tokyo", "month": "March"}
	extracted := map[string]string{"budget": "$2000"}

	merged, accepted, rejected := Merge(prior, extracted)

	want := map[string]string{"city": "Tokyo", "month": "March", "budget": "$2000"}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"budget"}, accepted)
	assert.Empty(t, rejected)
}

func TestMergeLastWriteWins(t *testing.T) {
	prior := map[string]string{"city": "Tokyo"}
	extracted := map[string]string{"city": "Osaka"}

	merged, accepted, _ := Merge(prior, extracted)

	assert.Equal(t, "Osaka", merged["city"])
	assert.Equal(t, []string{"city"}, accepted)
}

func TestMergeRejectsPlaceholders(t *testing.T) {
	prior := map[string]string{"city": "Tokyo"}
	extracted := map[string]string{
		"city":  "unknown",
		"month": "normalized_date_string",
		"dates": "  ",
	}

	merged, accepted, rejected := Merge(prior, extracted)

	// The real Tokyo survives; none of the filler lands.
	want := map[string]string{"city": "Tokyo"}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, accepted)
	assert.Equal(t, []string{"city", "dates", "month"}, rejected)
}

func TestMergeRejectsThereAsDestination(t *testing.T) {
	merged, accepted, rejected := Merge(nil, map[string]string{
		"destinationCity": "there",
	})

	assert.Empty(t, merged)
	assert.Empty(t, accepted)
	assert.Equal(t, []string{"destinationCity"}, rejected)
}

func TestMergeRejectsMonthAsCity(t *testing.T) {
	merged, _, rejected := Merge(nil, map[string]string{
		"city":  "March",
		"month": "March",
	})

	// March is a fine month and a terrible city.
	assert.Equal(t, map[string]string{"month": "March"}, merged)
	assert.Equal(t, []string{"city"}, rejected)
}

func TestMergeNeverWritesReservedKeys(t *testing.T) {
	merged, accepted, rejected := Merge(nil, map[string]string{
		model.SlotKeyConsentAwaiting: "true",
		"city":                       "Lisbon",
	})

	assert.Equal(t, map[string]string{"city": "Lisbon"}, merged)
	assert.Equal(t, []string{"city"}, accepted)
	assert.Equal(t, []string{model.SlotKeyConsentAwaiting}, rejected)
}

func TestIsPlaceholder(t *testing.T) {
	for _, v := range []string{"", "  ", "Unknown", "THERE", "n/a", "tbd"} {
		assert.True(t, IsPlaceholder(v), "%q should be a placeholder", v)
	}
	for _, v := range []string{"Paris", "March", "$2000", "2"} {
		assert.False(t, IsPlaceholder(v), "%q should be a real value", v)
	}
}

func TestMergeAndPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryThreadStore()
	mem := NewMemory(store)

	_, _, _, err := mem.MergeAndPersist(ctx, "t1", map[string]string{"city": "Paris"}, nil)
	require.NoError(t, err)

	merged, accepted, _, err := mem.MergeAndPersist(ctx, "t1", map[string]string{"month": "May"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"month"}, accepted)
	assert.Equal(t, "Paris", merged["city"])

	got, err := mem.UserSlots(ctx, "t1")
	require.NoError(t, err)
	want := map[string]string{"city": "Paris", "month": "May"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("persisted slots mismatch (-want +got):\n%s", diff)
	}
}

func TestReservedKeysHiddenFromUserSlots(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryThreadStore()
	mem := NewMemory(store)

	require.NoError(t, mem.SetReserved(ctx, "t1", map[string]string{
		model.SlotKeyConsentAwaiting: "true",
		model.SlotKeyConsentQuery:    "what airlines fly there",
	}))
	_, _, _, err := mem.MergeAndPersist(ctx, "t1", map[string]string{"city": "Rome"}, nil)
	require.NoError(t, err)

	user, err := mem.UserSlots(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"city": "Rome"}, user)

	awaiting, err := mem.Reserved(ctx, "t1", model.SlotKeyConsentAwaiting)
	require.NoError(t, err)
	assert.Equal(t, "true", awaiting)
}

func TestSetReservedEmptyValueDeletes(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory(repo.NewMemoryThreadStore())

	require.NoError(t, mem.SetReserved(ctx, "t1", map[string]string{
		model.SlotKeyConsentAwaiting: "true",
	}))
	require.NoError(t, mem.SetReserved(ctx, "t1", map[string]string{
		model.SlotKeyConsentAwaiting: "",
	}))

	v, err := mem.Reserved(ctx, "t1", model.SlotKeyConsentAwaiting)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestMergeAndPersistRecordsMissingList(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory(repo.NewMemoryThreadStore())

	_, _, _, err := mem.MergeAndPersist(ctx, "t1", map[string]string{"city": "Paris"}, []string{WhenClause})
	require.NoError(t, err)

	v, err := mem.Reserved(ctx, "t1", model.SlotKeyMissing)
	require.NoError(t, err)
	assert.Equal(t, WhenClause, v)

	// Resolved gaps clear the bookkeeping.
	_, _, _, err = mem.MergeAndPersist(ctx, "t1", map[string]string{"month": "May"}, nil)
	require.NoError(t, err)
	v, err = mem.Reserved(ctx, "t1", model.SlotKeyMissing)
	require.NoError(t, err)
	assert.Empty(t, v)
}
