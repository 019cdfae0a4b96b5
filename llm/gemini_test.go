package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/lexcodex/nlcommand/framework"
)

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func TestGeminiChat(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(`{"action":"list_tables"}`, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 30, CandidatesTokenCount: 6},
	}}
	client := &GeminiClient{Model: "gemini-test", models: fake}

	resp, err := client.Chat(context.Background(), []framework.Message{
		{Role: framework.RoleSystem, Content: "database rules"},
		{Role: framework.RoleUser, Content: "what tables exist"},
	}, &framework.LLMOptions{Temperature: 0.1, MaxTokens: 64, JSON: true})
	require.NoError(t, err)

	assert.Equal(t, `{"action":"list_tables"}`, resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 30, resp.Usage["prompt_tokens"])
	assert.Equal(t, "gemini-test", fake.model)
	require.Len(t, fake.contents, 1)
	assert.Equal(t, genai.RoleUser, fake.contents[0].Role)
	require.NotNil(t, fake.config.SystemInstruction)
	assert.Equal(t, "database rules", fake.config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	assert.Equal(t, int32(64), fake.config.MaxOutputTokens)
	require.NotNil(t, fake.config.Temperature)
	assert.InDelta(t, 0.1, float64(*fake.config.Temperature), 1e-6)
}

func TestGeminiErrors(t *testing.T) {
	fake := &fakeModels{err: errors.New("quota exceeded")}
	client := &GeminiClient{models: fake}

	_, err := client.Generate(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, DefaultGeminiModel, fake.model)

	_, err = client.Chat(context.Background(), []framework.Message{{Role: framework.RoleSystem, Content: "only rules"}}, nil)
	assert.Error(t, err)

	_, err = NewGeminiClient(context.Background(), "", "")
	assert.Error(t, err)
}
