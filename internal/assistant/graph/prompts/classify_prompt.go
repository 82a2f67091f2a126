package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/classify_prompt.txt
var classifySystemPrompt string

// RenderClassify builds the classifier call: rendered system prompt plus the
// user message wrapped with any prior conversation context. Rendering goes
// through the Eino prompt component so prompt callbacks fire.
func RenderClassify(ctx context.Context, message, priorContext string) ([]*schema.Message, error) {
	// Replace known tokens only; the template body contains JSON braces that
	// must survive untouched.
	content := strings.NewReplacer(
		"{content_types}", "travel, budget, system, unrelated",
		"{intents}", "weather, packing, attractions, destinations, flights, web_search, system, unknown",
		"{slot_keys}", "city, month, dates, originCity, destinationCity, passengers, budget",
	).Replace(classifySystemPrompt)

	var user strings.Builder
	if priorContext != "" {
		user.WriteString("<conversation_context>\n")
		user.WriteString(priorContext)
		user.WriteString("\n</conversation_context>\n\n")
	}
	user.WriteString("<message_to_classify>\n")
	user.WriteString(message)
	user.WriteString("\n</message_to_classify>")

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("classify_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"classify_messages": []*schema.Message{
			schema.SystemMessage(content),
			schema.UserMessage(user.String()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("classify prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("classify prompt render: empty result")
	}
	return msgs, nil
}
