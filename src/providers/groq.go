package providers

import (
	"context"
	"encoding/json"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/raulisai/Gateway-IA/src/models"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// GroqProvider reaches Groq's OpenAI compatible endpoint through langchaingo.
type GroqProvider struct {
	opts Options
}

func NewGroq(opts Options) *GroqProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = groqBaseURL
	}
	return &GroqProvider{opts: opts}
}

func (p *GroqProvider) Name() string {
	return Groq
}

func messageType(role string) llms.ChatMessageType {
	switch role {
	case models.RoleSystem:
		return llms.ChatMessageTypeSystem
	case models.RoleAssistant:
		return llms.ChatMessageTypeAI
	case models.RoleFunction:
		return llms.ChatMessageTypeGeneric
	default:
		return llms.ChatMessageTypeHuman
	}
}

func (p *GroqProvider) Generate(ctx context.Context, req *models.GenerationRequest, credential string) (*models.GenerationResponse, error) {
	clientOpts := []openai.Option{
		openai.WithBaseURL(p.opts.BaseURL),
		openai.WithToken(credential),
		openai.WithModel(req.ModelID),
	}
	if p.opts.HTTPClient != nil {
		clientOpts = append(clientOpts, openai.WithHTTPClient(p.opts.HTTPClient))
	}
	llm, err := openai.New(clientOpts...)
	if err != nil {
		return nil, err
	}

	content := make([]llms.MessageContent, len(req.Messages))
	for i, m := range req.Messages {
		content[i] = llms.TextParts(messageType(m.Role), m.Content)
	}

	var callOptions []llms.CallOption
	if req.Temperature != nil {
		callOptions = append(callOptions, llms.WithTemperature(*req.Temperature))
	}
	if req.TopP != nil {
		callOptions = append(callOptions, llms.WithTopP(*req.TopP))
	}
	if req.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(req.MaxTokens))
	}
	if len(req.StopSequences) > 0 {
		callOptions = append(callOptions, llms.WithStopWords(req.StopSequences))
	}

	resp, err := llm.GenerateContent(ctx, content, callOptions...)
	if err != nil {
		return nil, err
	}

	out := &models.GenerationResponse{
		Model:         req.ModelID,
		UpstreamModel: req.ModelID,
		Provider:      Groq,
	}
	var finish string
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		out.Content = choice.Content
		finish = choice.StopReason
		out.Usage = models.Usage{
			InputTokens:  intInfo(choice.GenerationInfo, "PromptTokens"),
			OutputTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
			TotalTokens:  intInfo(choice.GenerationInfo, "TotalTokens"),
		}
	}
	out.FinishReason = incomplete(out.Content, finish)
	out.Raw, _ = json.Marshal(resp)

	return out, nil
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
