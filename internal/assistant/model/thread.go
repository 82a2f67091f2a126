package model

import (
	"context"
	"time"
)

// Reserved slot keys. They live in the same per-thread slot map as user
// slots but are owned by the orchestrator: the merge policy never writes
// them from extraction output and user-facing slot views filter them out.
const (
	SlotKeyConsentAwaiting = "_consent_awaiting"
	SlotKeyConsentQuery    = "_consent_query"
	SlotKeyLastIntent      = "_last_intent"
	SlotKeyMissing         = "_missing"
)

// ReservedSlot reports whether key belongs to the orchestrator rather than
// the user.
func ReservedSlot(key string) bool {
	return len(key) > 0 && key[0] == '_'
}

// Per-thread JSON document keys.
const (
	DocReceipts     = "receipts"
	DocVerification = "verification"
)

// Thread history roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ThreadMessage is one entry of a thread's history.
type ThreadMessage struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ThreadStore is the per-thread persistence contract. Implementations back
// it with Redis or process memory; the orchestrator never assumes more than
// these operations plus a TTL the backend may enforce.
type ThreadStore interface {
	// GetSlots returns the full slot map for the thread, reserved keys
	// included. Missing threads yield an empty map, not an error.
	GetSlots(ctx context.Context, threadID string) (map[string]string, error)

	// SetSlots replaces the thread's slot map.
	SetSlots(ctx context.Context, threadID string, slots map[string]string) error

	// AppendMessage adds one history entry.
	AppendMessage(ctx context.Context, threadID string, msg ThreadMessage) error

	// Messages returns the thread history, oldest first.
	Messages(ctx context.Context, threadID string) ([]ThreadMessage, error)

	// SetJSON stores a JSON document under the given key.
	SetJSON(ctx context.Context, threadID, key string, v any) error

	// GetJSON loads the document into v, reporting whether it existed.
	GetJSON(ctx context.Context, threadID, key string, v any) (bool, error)

	// Clear deletes everything the store holds for the thread.
	Clear(ctx context.Context, threadID string) error
}
