package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// safetySettings blocks medium-and-above harm in every category a bedtime
// story could stray into.
var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
}

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// geminiClient implements LLMClient on the Gemini API.
type geminiClient struct {
	cfg      LLMConfig
	generate generateFunc
	observer Observer
}

// NewGeminiClient creates an LLMClient backed by Google's Gemini API.
func NewGeminiClient(ctx context.Context, cfg LLMConfig, observer Observer) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", ErrUnavailable)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return newGeminiClient(cfg, client.Models.GenerateContent, observer), nil
}

func newGeminiClient(cfg LLMConfig, generate generateFunc, observer Observer) *geminiClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	return &geminiClient{cfg: cfg, generate: generate, observer: observer}
}

func (c *geminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	return generateWithRetry(ctx, c.cfg, c.observer, req, func(ctx context.Context, temp float64, maxTok int) (string, string, error) {
		config := &genai.GenerateContentConfig{
			SafetySettings: safetySettings,
			Temperature:    genai.Ptr(float32(temp)),
		}
		if maxTok > 0 {
			config.MaxOutputTokens = int32(maxTok)
		}
		if req.SystemPrompt != "" {
			config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
		}

		contents := []*genai.Content{genai.NewContentFromText(req.UserPrompt, genai.RoleUser)}
		resp, err := c.generate(ctx, c.cfg.Model, contents, config)
		if err != nil {
			return "", "", err
		}
		if blocked(resp) {
			return "", "", ErrBlocked
		}
		text := resp.Text()
		if strings.TrimSpace(text) == "" {
			return "", "", ErrEmptyResponse
		}
		return text, c.cfg.Model, nil
	})
}

// Available reports whether the client has credentials.
func (c *geminiClient) Available(context.Context) bool {
	return c.cfg.APIKey != ""
}

func blocked(resp *genai.GenerateContentResponse) bool {
	if resp == nil {
		return false
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return true
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return true
	}
	return false
}
