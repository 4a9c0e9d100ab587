package ai

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/keytally/internal/config"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

type anthropicCompleter struct {
	client anthropic.Client
	model  string
	cfg    config.AIConfig
}

func newAnthropic(cfg config.AIConfig) (completer, error) {
	apiKey, err := resolveKey(cfg, "ANTHROPIC_API_KEY")
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &anthropicCompleter{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		cfg:    cfg,
	}, nil
}

func (a *anthropicCompleter) Model() string { return a.model }

func (a *anthropicCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.cfg.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(a.cfg.Temperature),
	})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
