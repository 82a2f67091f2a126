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

//go:embed template/compose_prompt.txt
var composeSystemPrompt string

// RenderCompose builds the writer call for the narrative half of a reply.
func RenderCompose(ctx context.Context, assistantName string, intent model.Intent, userSlots map[string]string, facts []model.FactUsed, userMessage string) ([]*schema.Message, error) {
	slotsJSON, err := json.Marshal(userSlots)
	if err != nil {
		return nil, fmt.Errorf("compose prompt slots: %w", err)
	}
	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return nil, fmt.Errorf("compose prompt facts: %w", err)
	}

	content := strings.NewReplacer(
		"{assistant_name}", assistantName,
		"{intent}", string(intent),
		"{slots}", string(slotsJSON),
		"{facts}", string(factsJSON),
	).Replace(composeSystemPrompt)

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("compose_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"compose_messages": []*schema.Message{
			schema.SystemMessage(content),
			schema.UserMessage(userMessage),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("compose prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("compose prompt render: empty result")
	}
	return msgs, nil
}
