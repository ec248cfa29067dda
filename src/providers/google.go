package providers

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/genai"

	"github.com/raulisai/Gateway-IA/src/models"
)

type GoogleProvider struct {
	opts Options
}

func NewGoogle(opts Options) *GoogleProvider {
	return &GoogleProvider{opts: opts}
}

func (p *GoogleProvider) Name() string {
	return Google
}

func (p *GoogleProvider) Generate(ctx context.Context, req *models.GenerationRequest, credential string) (*models.GenerationResponse, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     credential,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.opts.HTTPClient,
	}
	if p.opts.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, err
	}

	genCfg := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		genCfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.TopP != nil {
		genCfg.TopP = genai.Ptr(float32(*req.TopP))
	}
	if len(req.StopSequences) > 0 {
		genCfg.StopSequences = req.StopSequences
	}

	var contents []*genai.Content
	var system []string
	for _, m := range req.Messages {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, m.Content)
		case models.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		genCfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, req.ModelID, contents, genCfg)
	if err != nil {
		return nil, err
	}

	out := &models.GenerationResponse{
		Model:         req.ModelID,
		UpstreamModel: resp.ModelVersion,
		Provider:      Google,
	}
	var finish string
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		var content strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil {
				content.WriteString(part.Text)
			}
		}
		out.Content = content.String()
		finish = string(resp.Candidates[0].FinishReason)
	}
	out.FinishReason = incomplete(out.Content, finish)
	if resp.UsageMetadata != nil {
		out.Usage = models.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	out.Raw, _ = json.Marshal(resp)

	return out, nil
}
