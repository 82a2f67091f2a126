package conversations

import (
	"context"
	"strings"
	"time"

	"github.com/tripdesk-core/server/internal/assistant/model"
)

// Manager owns the thread history side of a turn: recording messages and
// building the short context window the classifier reads. Slot state lives
// elsewhere; this is strictly about what was said.
type Manager struct {
	store    model.ThreadStore
	maxTurns int
}

func NewManager(store model.ThreadStore, cfg model.ConversationConfig) *Manager {
	maxTurns := cfg.History.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 6
	}
	return &Manager{store: store, maxTurns: maxTurns}
}

// RecordUserTurn appends the user message to the thread history and returns
// the prior-context window, rendered for the classifier. The window covers
// the most recent turns before this message.
func (m *Manager) RecordUserTurn(ctx context.Context, threadID, message string) (string, error) {
	history, err := m.store.Messages(ctx, threadID)
	if err != nil {
		return "", err
	}

	if err := m.store.AppendMessage(ctx, threadID, model.ThreadMessage{
		Role:    model.RoleUser,
		Content: message,
		At:      time.Now(),
	}); err != nil {
		return "", err
	}

	return renderContext(trimTail(history, m.maxTurns)), nil
}

// SaveAssistantReply appends the assistant's answer to the thread history.
func (m *Manager) SaveAssistantReply(ctx context.Context, threadID, content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	return m.store.AppendMessage(ctx, threadID, model.ThreadMessage{
		Role:    model.RoleAssistant,
		Content: content,
		At:      time.Now(),
	})
}

// RecentUserTurns returns up to n of the latest user messages, oldest first.
func (m *Manager) RecentUserTurns(ctx context.Context, threadID string, n int) ([]string, error) {
	history, err := m.store.Messages(ctx, threadID)
	if err != nil {
		return nil, err
	}
	var users []string
	for _, msg := range history {
		if msg.Role == model.RoleUser && msg.Content != "" {
			users = append(users, msg.Content)
		}
	}
	if len(users) > n {
		users = users[len(users)-n:]
	}
	return users, nil
}

// renderContext frames recent turns for the classifier prompt. An empty
// window renders to "" so first turns carry no context block at all.
func renderContext(messages []model.ThreadMessage) string {
	var b strings.Builder
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case model.RoleUser:
			b.WriteString("User: " + msg.Content + "\n")
		case model.RoleAssistant:
			b.WriteString("Assistant: " + msg.Content + "\n")
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "<conversation_context>\n" + b.String() + "</conversation_context>"
}

func trimTail(messages []model.ThreadMessage, maxTurns int) []model.ThreadMessage {
	if len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
