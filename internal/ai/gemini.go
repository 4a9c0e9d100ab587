package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dshills/keytally/internal/config"
)

const defaultGeminiModel = "gemini-1.5-flash"

// geminiCompleter defers client construction to the first Complete call
// because genai.NewClient needs a context.
type geminiCompleter struct {
	apiKey string
	model  string
	cfg    config.AIConfig
}

func newGemini(cfg config.AIConfig) (completer, error) {
	apiKey, err := resolveKey(cfg, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiCompleter{apiKey: apiKey, model: model, cfg: cfg}, nil
}

func (g *geminiCompleter) Model() string { return g.model }

func (g *geminiCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetMaxOutputTokens(int32(g.cfg.MaxTokens))
	model.SetTemperature(float32(g.cfg.Temperature))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("response contained no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
