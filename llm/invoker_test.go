package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/nlcommand/command"
	"github.com/lexcodex/nlcommand/framework"
	"github.com/lexcodex/nlcommand/internal/config"
)

type scriptedModel struct {
	reply    string
	err      error
	messages []framework.Message
	options  *framework.LLMOptions
	deadline bool
}

func (m *scriptedModel) Generate(ctx context.Context, prompt string, options *framework.LLMOptions) (*framework.LLMResponse, error) {
	return m.Chat(ctx, []framework.Message{{Role: framework.RoleUser, Content: prompt}}, options)
}

func (m *scriptedModel) Chat(ctx context.Context, messages []framework.Message, options *framework.LLMOptions) (*framework.LLMResponse, error) {
	m.messages, m.options = messages, options
	_, m.deadline = ctx.Deadline()
	if m.err != nil {
		return nil, m.err
	}
	return &framework.LLMResponse{Text: m.reply}, nil
}

type sinkFunc func(framework.Event)

func (f sinkFunc) Emit(e framework.Event) { f(e) }

var _ command.Invoker = (*ChatInvoker)(nil)

func TestChatInvoker(t *testing.T) {
	model := &scriptedModel{reply: `{"action":"reset"}`}
	invoker := NewChatInvoker(model, framework.LLMOptions{Model: "m"}, time.Second)

	out, err := invoker.Invoke(context.Background(), "system text", "undo")
	require.NoError(t, err)
	assert.Equal(t, `{"action":"reset"}`, out)
	require.Len(t, model.messages, 2)
	assert.Equal(t, framework.Message{Role: framework.RoleSystem, Content: "system text"}, model.messages[0])
	assert.Equal(t, framework.Message{Role: framework.RoleUser, Content: "undo"}, model.messages[1])
	assert.True(t, model.options.JSON)
	assert.True(t, model.deadline)
}

func TestChatInvokerDrivesInterpreter(t *testing.T) {
	model := &scriptedModel{reply: `{"action":"scale","value":"1.25"}`}
	var events []framework.Event
	telemetry := sinkFunc(func(e framework.Event) { events = append(events, e) })
	instrumented := NewInstrumentedModel(model, telemetry, true)
	interp := command.NewInterpreter(command.Diagram, NewChatInvoker(instrumented, Options(config.Default().Model), 0), telemetry)

	ctx := framework.WithRequestContext(context.Background(), framework.RequestContext{ID: "r-9", Domain: "diagram"})
	cmd, err := interp.Interpret(ctx, command.Request{UserInput: "zoom to 125%"})
	require.NoError(t, err)
	assert.Equal(t, command.Scale{Factor: 1.25}, cmd.Payload)
	assert.False(t, model.deadline)

	var types []framework.EventType
	for _, e := range events {
		types = append(types, e.Type)
		assert.Equal(t, "r-9", e.RequestID)
	}
	assert.Equal(t, []framework.EventType{
		framework.EventCommandRequest,
		framework.EventLLMPrompt,
		framework.EventLLMResponse,
		framework.EventCommandAccepted,
	}, types)
	assert.Contains(t, events[1].Metadata, "messages")
	assert.Equal(t, true, events[1].Metadata["json_mode"])
}

func TestChatInvokerError(t *testing.T) {
	cause := errors.New("connection refused")
	invoker := NewChatInvoker(&scriptedModel{err: cause}, framework.LLMOptions{}, 0)
	_, err := invoker.Invoke(context.Background(), "s", "u")
	assert.ErrorIs(t, err, cause)

	_, err = (&ChatInvoker{}).Invoke(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default().Model
	cfg.Timeout = 5 * time.Second
	model, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	client, ok := model.(*Client)
	require.True(t, ok)
	assert.Equal(t, "llama3.1", client.Model)
	assert.Equal(t, 5*time.Second, client.client.Timeout)

	cfg.Provider = config.ProviderGemini
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err, "gemini needs an API key")

	cfg.Provider = "bard"
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)
}
