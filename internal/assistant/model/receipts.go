package model

import (
	"time"
)

// FactUsed is one external fact the composer built the answer from. Source
// names the tool catalog it came from; facts never originate in the model's
// own text.
type FactUsed struct {
	Source string `json:"source"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// Decision is one recorded choice point of the turn.
type Decision struct {
	Action       string   `json:"action"`
	Rationale    string   `json:"rationale"`
	Confidence   float64  `json:"confidence,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// Budget aggregates what the turn spent.
type Budget struct {
	ToolLatencyMS    int64   `json:"tool_latency_ms"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	LLMCostUSD       float64 `json:"llm_cost_usd"`
}

// Receipt is the explainability bundle for the latest answered turn,
// persisted per thread and served by the /why command.
type Receipt struct {
	ThreadID  string     `json:"thread_id"`
	Intent    Intent     `json:"intent"`
	Facts     []FactUsed `json:"facts,omitempty"`
	Decisions []Decision `json:"decisions,omitempty"`
	Budget    Budget     `json:"budget"`
	CreatedAt time.Time  `json:"created_at"`
}
