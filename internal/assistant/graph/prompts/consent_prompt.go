package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/consent_prompt.txt
var consentSystemPrompt string

// RenderConsentResolve builds the yes/no fallback call for an ambiguous
// consent reply.
func RenderConsentResolve(ctx context.Context, pendingQuestion, userReply string) ([]*schema.Message, error) {
	content := strings.NewReplacer(
		"{pending_question}", pendingQuestion,
	).Replace(consentSystemPrompt)

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("consent_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"consent_messages": []*schema.Message{
			schema.SystemMessage(content),
			schema.UserMessage(userReply),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("consent prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("consent prompt render: empty result")
	}
	return msgs, nil
}
