package providers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/raulisai/Gateway-IA/src/models"
)

// Anthropic requires max_tokens on every request.
const anthropicDefaultMaxTokens = 1024

type AnthropicProvider struct {
	opts Options
}

func NewAnthropic(opts Options) *AnthropicProvider {
	return &AnthropicProvider{opts: opts}
}

func (p *AnthropicProvider) Name() string {
	return Anthropic
}

func (p *AnthropicProvider) client(credential string) anthropic.Client {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(credential),
		option.WithMaxRetries(0),
	}
	if p.opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(p.opts.BaseURL))
	}
	if p.opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(p.opts.HTTPClient))
	}
	return anthropic.NewClient(clientOpts...)
}

func (p *AnthropicProvider) Generate(ctx context.Context, req *models.GenerationRequest, credential string) (*models.GenerationResponse, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.ModelID),
		MaxTokens: anthropicDefaultMaxTokens,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = int64(req.MaxTokens)
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = anthropic.Float(*req.TopP)
	}
	if len(req.StopSequences) > 0 {
		params.StopSequences = req.StopSequences
	}

	// System prompts travel outside the turn list.
	for _, m := range req.Messages {
		switch m.Role {
		case models.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case models.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	client := p.client(credential)
	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	out := &models.GenerationResponse{
		Content:       content.String(),
		Model:         req.ModelID,
		UpstreamModel: string(msg.Model),
		Provider:      Anthropic,
		Usage: models.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
	out.FinishReason = incomplete(out.Content, string(msg.StopReason))
	if raw := msg.RawJSON(); raw != "" {
		out.Raw = json.RawMessage(raw)
	}

	return out, nil
}
