package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/tripdesk-core/server/internal/assistant/model"
	logx "github.com/tripdesk-core/server/pkg/logger"
)

// ChatModelConfig holds what chat model creation needs.
type ChatModelConfig struct {
	APIKey     string
	BaseURL    string
	Classifier *model.ClassifierModelConfig
	Writer     *model.WriterModelConfig
}

// ChatModels holds the two models a turn can touch: a small fast one for
// classification and consent parsing, a larger one for writing and
// verification.
type ChatModels struct {
	Classifier          *gemini.ChatModel
	Writer              *gemini.ChatModel
	ClassifierModelName string
	WriterModelName     string
}

// NewChatModels creates both models over one Gemini client.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	// Classification sits on the hot path of every turn; thinking off.
	classifier, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Classifier.Model,
		Temperature: &config.Classifier.Temperature,
		MaxTokens:   &config.Classifier.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating classifier model")
		return nil, fmt.Errorf("error creating classifier model: %w", err)
	}

	writer, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Writer.Model,
		Temperature: &config.Writer.Temperature,
		MaxTokens:   &config.Writer.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(1000)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating writer model")
		return nil, fmt.Errorf("error creating writer model: %w", err)
	}

	return &ChatModels{
		Classifier:          classifier,
		Writer:              writer,
		ClassifierModelName: config.Classifier.Model,
		WriterModelName:     config.Writer.Model,
	}, nil
}
