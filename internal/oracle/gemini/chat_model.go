// Package gemini adapts the Google Gemini API to eino's chat model interface so
// the ranking and moderation chains can run on either provider.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-3-flash-preview"

// Config describes how to reach Gemini.
type Config struct {
	APIKey      string
	Model       string
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
}

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ChatModel implements model.ChatModel on top of genai.
type ChatModel struct {
	models generator
	cfg    Config
}

type options struct {
	responseSchema *genai.Schema
}

// WithResponseSchema attaches a structured-output schema hint to one call.
// Other providers ignore it.
func WithResponseSchema(s *genai.Schema) model.Option {
	return model.WrapImplSpecificOptFn(func(o *options) {
		o.responseSchema = s
	})
}

// NewChatModel creates a Gemini-backed chat model.
func NewChatModel(ctx context.Context, cfg Config) (*ChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &ChatModel{models: client.Models, cfg: cfg}, nil
}

// Generate sends the conversation and returns the model's reply as an assistant message.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	common := model.GetCommonOptions(&model.Options{
		Temperature: m.cfg.Temperature,
		TopP:        m.cfg.TopP,
		MaxTokens:   m.cfg.MaxTokens,
		Model:       &m.cfg.Model,
	}, opts...)
	specific := model.GetImplSpecificOptions(&options{}, opts...)

	system, contents := convertMessages(input)
	if len(contents) == 0 {
		return nil, errors.New("gemini: no user content to send")
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       common.Temperature,
		TopP:              common.TopP,
		StopSequences:     common.Stop,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    specific.responseSchema,
	}
	if common.MaxTokens != nil {
		genCfg.MaxOutputTokens = int32(*common.MaxTokens)
	}

	modelName := m.cfg.Model
	if common.Model != nil && *common.Model != "" {
		modelName = *common.Model
	}

	resp, err := m.models.GenerateContent(ctx, modelName, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return nil, errors.New("gemini generate: empty response")
	}

	return schema.AssistantMessage(resp.Text(), nil), nil
}

// Stream is served by a single Generate call; the oracle callers never need
// incremental output.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// BindTools is unsupported; the oracle prompts never use tools.
func (m *ChatModel) BindTools(tools []*schema.ToolInfo) error {
	if len(tools) == 0 {
		return nil
	}
	return errors.New("gemini: tool binding not supported")
}

func convertMessages(input []*schema.Message) (*genai.Content, []*genai.Content) {
	var systemParts []string
	contents := make([]*genai.Content, 0, len(input))

	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			if text := strings.TrimSpace(msg.Content); text != "" {
				systemParts = append(systemParts, text)
			}
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	}
	return system, contents
}
