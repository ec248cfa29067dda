package providers

import (
	"context"
	"encoding/json"

	"github.com/sashabaranov/go-openai"

	"github.com/raulisai/Gateway-IA/src/models"
)

const deepSeekBaseURL = "https://api.deepseek.com/v1"

// OpenAIProvider speaks the OpenAI chat completions API. DeepSeek is served
// by the same adapter pointed at its own base URL.
type OpenAIProvider struct {
	name string
	opts Options
}

func NewOpenAI(opts Options) *OpenAIProvider {
	return &OpenAIProvider{name: OpenAI, opts: opts}
}

func NewDeepSeek(opts Options) *OpenAIProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = deepSeekBaseURL
	}
	return &OpenAIProvider{name: DeepSeek, opts: opts}
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) client(credential string) *openai.Client {
	cfg := openai.DefaultConfig(credential)
	if p.opts.BaseURL != "" {
		cfg.BaseURL = p.opts.BaseURL
	}
	if p.opts.HTTPClient != nil {
		cfg.HTTPClient = p.opts.HTTPClient
	}
	return openai.NewClientWithConfig(cfg)
}

func (p *OpenAIProvider) Generate(ctx context.Context, req *models.GenerationRequest, credential string) (*models.GenerationResponse, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content, Name: m.Name}
	}

	chatReq := openai.ChatCompletionRequest{
		Model:     req.ModelID,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
		Stop:      req.StopSequences,
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}
	if req.TopP != nil {
		chatReq.TopP = float32(*req.TopP)
	}

	resp, err := p.client(credential).CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	out := &models.GenerationResponse{
		Model:         req.ModelID,
		UpstreamModel: resp.Model,
		Provider:      p.name,
		Usage: models.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}
	var finish string
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		finish = string(resp.Choices[0].FinishReason)
	}
	out.FinishReason = incomplete(out.Content, finish)
	out.Raw, _ = json.Marshal(resp)

	return out, nil
}
