package prompts

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/tripdesk-core/server/internal/assistant/model"
)

//go:embed template/verify_prompt.txt
var verifySystemPrompt string

// RenderVerify builds the self-check call over a drafted reply.
func RenderVerify(ctx context.Context, reply string, facts []model.FactUsed, recentUserTurns []string, slotsBefore map[string]string, lastIntent model.Intent) ([]*schema.Message, error) {
	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return nil, fmt.Errorf("verify prompt facts: %w", err)
	}
	slotsJSON, err := json.Marshal(slotsBefore)
	if err != nil {
		return nil, fmt.Errorf("verify prompt slots: %w", err)
	}

	content := strings.NewReplacer(
		"{reply}", reply,
		"{facts}", string(factsJSON),
		"{recent_turns}", strings.Join(recentUserTurns, " | "),
		"{slots}", string(slotsJSON),
		"{last_intent}", string(lastIntent),
	).Replace(verifySystemPrompt)

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("verify_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"verify_messages": []*schema.Message{
			schema.SystemMessage(content),
			schema.UserMessage("Run the verification and answer with the JSON object."),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("verify prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("verify prompt render: empty result")
	}
	return msgs, nil
}
