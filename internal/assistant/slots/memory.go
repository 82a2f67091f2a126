// Package slots owns the per-thread cumulative slot memory: what the
// assistant has learned about a trip so far (city, month, dates, budget,
// route endpoints) and the merge policy that keeps junk out of it.
package slots

import (
	"context"
	"sort"
	"strings"

	"github.com/tripdesk-core/server/internal/assistant/model"
	logx "github.com/tripdesk-core/server/pkg/logger"
)

// placeholderTokens is the one canonical placeholder set. Classifier tiers
// sometimes emit schema-ish filler instead of real values; none of these may
// ever overwrite or seed a slot.
var placeholderTokens = map[string]struct{}{
	"":                       {},
	"unknown":                {},
	"there":                  {},
	"null":                   {},
	"none":                   {},
	"n/a":                    {},
	"na":                     {},
	"tbd":                    {},
	"placeholder":            {},
	"normalized_date_string": {},
	"date_string":            {},
	"city_name":              {},
	"month_name":             {},
	"somewhere":              {},
	"anywhere":               {},
	"your_city":              {},
	"destination":            {},
}

// IsPlaceholder reports whether v is filler that must never become a slot
// value.
func IsPlaceholder(v string) bool {
	_, ok := placeholderTokens[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

var monthNames = map[string]struct{}{
	"january": {}, "february": {}, "march": {}, "april": {},
	"may": {}, "june": {}, "july": {}, "august": {},
	"september": {}, "october": {}, "november": {}, "december": {},
}

// IsCalendarMonth reports whether v is a bare calendar month name. Month
// names are valid when-clauses but never valid cities.
func IsCalendarMonth(v string) bool {
	_, ok := monthNames[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

// cityKeys are the slot keys holding place names, where a calendar month is
// always a mis-extraction.
var cityKeys = map[string]struct{}{
	model.SlotCity:            {},
	model.SlotOriginCity:      {},
	model.SlotDestinationCity: {},
}

// Memory is the slot store facade for one ThreadStore.
type Memory struct {
	store model.ThreadStore
}

func NewMemory(store model.ThreadStore) *Memory {
	return &Memory{store: store}
}

// Snapshot returns the thread's slot map including reserved orchestrator
// keys. Never nil.
func (m *Memory) Snapshot(ctx context.Context, threadID string) (map[string]string, error) {
	slots, err := m.store.GetSlots(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = make(map[string]string)
	}
	return slots, nil
}

// UserSlots returns the thread's slot map with reserved keys filtered out.
func (m *Memory) UserSlots(ctx context.Context, threadID string) (map[string]string, error) {
	all, err := m.Snapshot(ctx, threadID)
	if err != nil {
		return nil, err
	}
	user := make(map[string]string, len(all))
	for k, v := range all {
		if model.ReservedSlot(k) {
			continue
		}
		user[k] = v
	}
	return user, nil
}

// Merge folds extracted candidates into prior slots. Existing keys survive
// unless the candidate is a real value; placeholders, reserved keys and
// month-as-city candidates are rejected. Last write wins for keys present in
// both. Returns the merged map plus the accepted and rejected key lists,
// both sorted for stable receipts.
func Merge(prior, extracted map[string]string) (merged map[string]string, accepted, rejected []string) {
	merged = make(map[string]string, len(prior)+len(extracted))
	for k, v := range prior {
		merged[k] = v
	}

	for k, v := range extracted {
		if model.ReservedSlot(k) {
			rejected = append(rejected, k)
			continue
		}
		v = strings.TrimSpace(v)
		if IsPlaceholder(v) {
			rejected = append(rejected, k)
			continue
		}
		if _, isCity := cityKeys[k]; isCity && IsCalendarMonth(v) {
			rejected = append(rejected, k)
			continue
		}
		merged[k] = v
		accepted = append(accepted, k)
	}

	sort.Strings(accepted)
	sort.Strings(rejected)
	return merged, accepted, rejected
}

// MergeAndPersist merges extracted candidates into the thread's memory and
// writes the result back. The missing list is recorded alongside the slots
// (reserved key) purely for diagnostic bookkeeping; it never gates the
// merge. The persisted map keeps reserved keys untouched.
func (m *Memory) MergeAndPersist(ctx context.Context, threadID string, extracted map[string]string, missing []string) (merged map[string]string, accepted, rejected []string, err error) {
	prior, err := m.Snapshot(ctx, threadID)
	if err != nil {
		return nil, nil, nil, err
	}

	merged, accepted, rejected = Merge(prior, extracted)
	if len(missing) > 0 {
		merged[model.SlotKeyMissing] = strings.Join(missing, ",")
	} else {
		delete(merged, model.SlotKeyMissing)
	}

	if err := m.store.SetSlots(ctx, threadID, merged); err != nil {
		return nil, nil, nil, err
	}
	logx.Debug().
		Str("thread_id", threadID).
		Strs("accepted", accepted).
		Strs("rejected", rejected).
		Strs("missing", missing).
		Msg("slot memory merged")
	return merged, accepted, rejected, nil
}

// Reserved reads one orchestrator-owned slot.
func (m *Memory) Reserved(ctx context.Context, threadID, key string) (string, error) {
	all, err := m.Snapshot(ctx, threadID)
	if err != nil {
		return "", err
	}
	return all[key], nil
}

// SetReserved writes orchestrator-owned slots without disturbing the rest of
// the map. Empty values delete the key.
func (m *Memory) SetReserved(ctx context.Context, threadID string, kv map[string]string) error {
	all, err := m.Snapshot(ctx, threadID)
	if err != nil {
		return err
	}
	for k, v := range kv {
		if v == "" {
			delete(all, k)
			continue
		}
		all[k] = v
	}
	return m.store.SetSlots(ctx, threadID, all)
}
