// Package chatmodel implements the disciple analyzer on eino chat models, so
// OpenAI-compatible gateways and local Ollama vision models can read cards.
package chatmodel

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/okian/sect/internal/domain/analysis"
	"github.com/okian/sect/internal/domain/model"
)

const schemaPreamble = "\n\nChỉ trả về một đối tượng JSON duy nhất, đúng theo JSON Schema sau:\n"

// Analyzer sends the card as an image part of a multimodal user message.
type Analyzer struct {
	chat       einomodel.BaseChatModel
	schemaHint string
}

// Config holds the provider connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewOpenAI builds an analyzer on an OpenAI-compatible chat completion endpoint.
func NewOpenAI(ctx context.Context, cfg Config) (*Analyzer, error) {
	if cfg.APIKey == "" {
		return &Analyzer{}, nil
	}
	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat model: %w", err)
	}
	return New(chat), nil
}

// NewOllama builds an analyzer on a local Ollama vision model. No key is needed.
func NewOllama(ctx context.Context, cfg Config) (*Analyzer, error) {
	chat, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat model: %w", err)
	}
	return New(chat), nil
}

// New wraps an existing chat model.
func New(chat einomodel.BaseChatModel) *Analyzer {
	return &Analyzer{chat: chat, schemaHint: SchemaHint()}
}

// SchemaHint renders the response schema appended to the system prompt.
func SchemaHint() string {
	b, err := json.MarshalIndent(analysis.ResponseSchema(), "", "  ")
	if err != nil {
		return ""
	}
	return schemaPreamble + string(b)
}

// Messages builds the conversation for one card.
func (a *Analyzer) Messages(image []byte, instruction string) []*schema.Message {
	dataURL := "data:" + analysis.DetectMIME(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
	return []*schema.Message{
		schema.SystemMessage(analysis.ResolveInstruction(instruction) + a.schemaHint),
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{Type: schema.ChatMessagePartTypeImageURL, ImageURL: &schema.ChatMessageImageURL{URL: dataURL}},
				{Type: schema.ChatMessagePartTypeText, Text: analysis.UserPrompt},
			},
		},
	}
}

// Analyze implements analysis.Analyzer.
func (a *Analyzer) Analyze(ctx context.Context, image []byte, instruction string) (model.Disciple, error) {
	if a.chat == nil {
		return model.Disciple{}, analysis.ErrMissingCredential
	}
	resp, err := a.chat.Generate(ctx, a.Messages(image, instruction))
	if err != nil {
		return model.Disciple{}, analysis.Classify(err)
	}
	if resp == nil {
		return model.Disciple{}, fmt.Errorf("%w: no response", analysis.ErrInvalidResponse)
	}
	return analysis.ParseResponse(resp.Content)
}
