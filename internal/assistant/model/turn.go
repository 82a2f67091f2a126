package model

import (
	"time"
)

// TurnInput is what the engine feeds into the turn graph.
type TurnInput struct {
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
}

// Route names the next hop the turn takes after planning. Branch conditions
// read it; nothing else should switch on node names.
type Route string

const (
	RouteClassify Route = "classify"
	RouteClarify  Route = "clarify"
	RouteConsent  Route = "consent"
	RouteDispatch Route = "dispatch"
	RouteDecline  Route = "decline"
)

// Blend styles steer how the composer renders a turn.
const (
	StyleFacts    = "facts"    // blend tool facts with narrative
	StyleResearch = "research" // consent-approved web lookup results
	StyleSystem   = "system"   // capability answer
	StyleNudge    = "nudge"    // unknown intent, steer the user back
	StyleRedirect = "redirect" // off-topic content
	StyleDecline  = "decline"  // user declined a consent request
)

// ToolCall is one planned tool invocation.
type ToolCall struct {
	Tool string            `json:"tool"`
	Args map[string]string `json:"args,omitempty"`
}

// Plan is the routing decision for a turn: where to go next and everything
// the downstream nodes need to get there. It is the payload type on every
// branch edge of the turn graph.
type Plan struct {
	Route        Route             `json:"route"`
	Intent       Intent            `json:"intent"`
	ContentType  ContentType       `json:"content_type"`
	Slots        map[string]string `json:"slots,omitempty"`
	Missing      []string          `json:"missing,omitempty"`
	ToolCalls    []ToolCall        `json:"tool_calls,omitempty"`
	PendingQuery string            `json:"pending_query,omitempty"`
	Question     string            `json:"question,omitempty"`
	BlendStyle   string            `json:"blend_style,omitempty"`
	Notes        []string          `json:"notes,omitempty"`
}

// ToolFailure records one tool call that did not produce facts.
type ToolFailure struct {
	Target string `json:"target"`
	Reason string `json:"reason"`
}

// ToolBundle carries dispatch output into composition.
type ToolBundle struct {
	Plan      *Plan         `json:"plan"`
	Facts     []FactUsed    `json:"facts,omitempty"`
	Failures  []ToolFailure `json:"failures,omitempty"`
	LatencyMS int64         `json:"latency_ms"`
}

// TurnReply is the engine's answer for one turn.
type TurnReply struct {
	ThreadID  string   `json:"thread_id"`
	Reply     string   `json:"reply"`
	Citations []string `json:"citations,omitempty"`
	Receipts  *Receipt `json:"receipts,omitempty"`
}

// TurnState is the per-invocation Graph Local State.
// Concurrency model follows the graph runtime contract:
//   - registered via compose.WithGenLocalState;
//   - reads/writes happen only inside state handlers
//     (WithStatePreHandler/WithStatePostHandler) or compose.ProcessState;
//   - the runtime serializes handler access, so no mutex is needed as long
//     as nothing touches the state outside handlers.
type TurnState struct {
	ThreadID  string
	Message   string
	StartedAt time.Time

	PriorContext   string
	PriorSlots     map[string]string
	LastIntent     Intent
	Classification *ClassificationResult
	Plan           *Plan

	Decisions []Decision
	Facts     []FactUsed

	ToolLatencyMS    int64
	PromptTokens     int
	CompletionTokens int
	TotalCostUSD     float64
}

// Decide appends a decision entry for the turn receipts.
func (s *TurnState) Decide(action, rationale string, confidence float64, alternatives ...string) {
	s.Decisions = append(s.Decisions, Decision{
		Action:       action,
		Rationale:    rationale,
		Confidence:   confidence,
		Alternatives: alternatives,
	})
}
