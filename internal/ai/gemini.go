package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient calls the Gemini API through the genai SDK.
type GeminiClient struct {
	models *genai.Models
}

// NewGeminiClient creates a client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{models: c.Models}, nil
}

func (c *GeminiClient) Name() string { return "gemini" }

func (c *GeminiClient) Do(ctx context.Context, req Request) (Response, error) {
	contents := BuildContents(req)

	var cfg *genai.GenerateContentConfig
	if len(req.Modalities) > 0 {
		cfg = &genai.GenerateContentConfig{ResponseModalities: req.Modalities}
	}

	resp, err := c.models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return Response{}, err
	}
	return FromGenerateResponse(resp), nil
}

// BuildContents builds a single user turn: inline media first, then the prompt.
func BuildContents(req Request) []*genai.Content {
	var parts []*genai.Part
	if len(req.Media) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Media, req.MediaMIME))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

// FromGenerateResponse collects text and inline images from the first candidate.
func FromGenerateResponse(resp *genai.GenerateContentResponse) Response {
	var out Response
	if resp == nil {
		return out
	}
	if resp.UsageMetadata != nil {
		out.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		out.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		if p.Text != "" {
			text.WriteString(p.Text)
			out.HasText = true
		}
		if p.InlineData != nil && len(p.InlineData.Data) > 0 {
			out.Images = append(out.Images, Blob{Data: p.InlineData.Data, MIMEType: p.InlineData.MIMEType})
		}
	}
	out.Text = text.String()
	return out
}
