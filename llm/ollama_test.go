package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/nlcommand/framework"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestClientGenerate(t *testing.T) {
	client := NewClient("http://fake/", "test")
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			assert.Equal(t, "/api/generate", req.URL.Path)
			var payload map[string]interface{}
			assert.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			assert.Equal(t, "hello", payload["prompt"])
			assert.Equal(t, false, payload["stream"])
			_, hasOptions := payload["options"]
			assert.False(t, hasOptions)
			return jsonResponse(200, `{"response":"response","eval_count":4,"prompt_eval_count":7}`)
		}),
	}

	resp, err := client.Generate(context.Background(), "hello", &framework.LLMOptions{})
	assert.NoError(t, err)
	assert.Equal(t, "response", resp.Text)
	assert.Equal(t, map[string]int{"completion_tokens": 4, "prompt_tokens": 7}, resp.Usage)
}

func TestClientChatJSONMode(t *testing.T) {
	client := NewClient("http://fake", "chat-model")
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			assert.Equal(t, "/api/chat", req.URL.Path)
			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			assert.Equal(t, "json", payload["format"])
			assert.Equal(t, "override", payload["model"])
			opts, _ := payload["options"].(map[string]interface{})
			assert.Equal(t, 0.2, opts["temperature"])
			assert.Equal(t, 128.0, opts["num_predict"])
			messages, _ := payload["messages"].([]interface{})
			assert.Len(t, messages, 2)
			return jsonResponse(200, `{"message":{"role":"assistant","content":"{\"action\":\"reset\"}"},"done_reason":"stop"}`)
		}),
	}

	resp, err := client.Chat(context.Background(), []framework.Message{
		{Role: framework.RoleSystem, Content: "rules"},
		{Role: framework.RoleUser, Content: "start over"},
	}, &framework.LLMOptions{Model: "override", Temperature: 0.2, MaxTokens: 128, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"action":"reset"}`, resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestClientErrorStatus(t *testing.T) {
	client := NewClient("http://fake", "missing")
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			return jsonResponse(404, `{"error":"model not found"}`)
		}),
	}

	_, err := client.Chat(context.Background(), []framework.Message{{Role: "user", Content: "ping"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestClientDefaults(t *testing.T) {
	client := NewClient("", "")
	assert.Equal(t, DefaultOllamaEndpoint, client.Endpoint)
	assert.Equal(t, "llama3.1", client.model(nil))
}
