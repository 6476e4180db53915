package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
	"github.com/sashabaranov/go-openai"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// GenerationRequest is a single prompt sent to a text generation service
type GenerationRequest struct {
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float64
}

// TextGenerator sends a prompt to a remote model and returns the generated text
type TextGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	Name() string
}

// NewTextGenerator creates the generator configured in settings
func NewTextGenerator(settings GeneratorSettings, apiKey string) (TextGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("generator API key is required")
	}
	switch settings.Provider {
	case ProviderAnthropic:
		return &AnthropicGenerator{apiKey: apiKey, model: settings.Model}, nil
	case ProviderOpenAI:
		return NewOpenAIGenerator(apiKey, settings.Model, settings.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", settings.Provider)
	}
}

// AnthropicGenerator calls the Anthropic messages API through llmkit
type AnthropicGenerator struct {
	apiKey string
	model  string
}

func (g *AnthropicGenerator) Name() string {
	return ProviderAnthropic + "/" + g.model
}

func (g *AnthropicGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	settings := types.RequestSettings{
		Model:       g.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	response, err := anthropic.PromptWithSettings(req.SystemPrompt, req.Prompt, "", g.apiKey, settings)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	if len(response.Content) == 0 {
		return "", errors.New("no content in response")
	}
	return response.Content[0].Text, nil
}

// OpenAIGenerator calls an OpenAI compatible chat completions API. Setting
// base_url to https://generativelanguage.googleapis.com/v1beta/openai/ targets Gemini.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator; an empty baseURL uses the OpenAI default
func NewOpenAIGenerator(apiKey, model, baseURL string) *OpenAIGenerator {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (g *OpenAIGenerator) Name() string {
	return ProviderOpenAI + "/" + g.model
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	debugLog("openai response in %s: prompt_tokens=%d completion_tokens=%d",
		time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
