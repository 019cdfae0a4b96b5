package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/lexcodex/nlcommand/framework"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient implements framework.LanguageModel on the Gemini API.
type GeminiClient struct {
	Model  string
	models contentGenerator
}

// NewGeminiClient creates a client for the hosted Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{Model: model, models: client.Models}, nil
}

// Generate sends a single user prompt.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, options *framework.LLMOptions) (*framework.LLMResponse, error) {
	return g.Chat(ctx, []framework.Message{{Role: framework.RoleUser, Content: prompt}}, options)
}

// Chat maps system messages onto the system instruction and the rest onto
// user/model turns.
func (g *GeminiClient) Chat(ctx context.Context, messages []framework.Message, options *framework.LLMOptions) (*framework.LLMResponse, error) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case framework.RoleSystem:
			system = append(system, msg.Content)
		case framework.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(contents) == 0 {
		return nil, errors.New("gemini: no user content")
	}
	config := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if options != nil {
		if options.Temperature != 0 {
			config.Temperature = genai.Ptr(float32(options.Temperature))
		}
		if options.TopP != 0 {
			config.TopP = genai.Ptr(float32(options.TopP))
		}
		if options.MaxTokens != 0 {
			config.MaxOutputTokens = int32(options.MaxTokens)
		}
		if len(options.Stop) > 0 {
			config.StopSequences = options.Stop
		}
		if options.JSON {
			config.ResponseMIMEType = "application/json"
		}
	}
	resp, err := g.models.GenerateContent(ctx, g.model(options), contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return convertGeminiResponse(resp), nil
}

func (g *GeminiClient) model(options *framework.LLMOptions) string {
	if options != nil && options.Model != "" {
		return options.Model
	}
	if g.Model != "" {
		return g.Model
	}
	return DefaultGeminiModel
}

func convertGeminiResponse(resp *genai.GenerateContentResponse) *framework.LLMResponse {
	out := &framework.LLMResponse{}
	if resp == nil {
		return out
	}
	out.Text = resp.Text()
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		out.FinishReason = strings.ToLower(string(resp.Candidates[0].FinishReason))
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = map[string]int{
			"prompt_tokens":     int(u.PromptTokenCount),
			"completion_tokens": int(u.CandidatesTokenCount),
		}
	}
	return out
}
