package llm

import (
	"context"
	"errors"
	"time"

	"github.com/lexcodex/nlcommand/framework"
)

// ChatInvoker sends the system prompt and the user's text as a two-message
// chat and returns the raw reply. It satisfies command.Invoker.
type ChatInvoker struct {
	Model   framework.LanguageModel
	Options framework.LLMOptions
	// Timeout bounds one call. Zero leaves the caller's deadline alone.
	Timeout time.Duration
}

// NewChatInvoker returns an invoker asking model for JSON output.
func NewChatInvoker(model framework.LanguageModel, options framework.LLMOptions, timeout time.Duration) *ChatInvoker {
	options.JSON = true
	return &ChatInvoker{Model: model, Options: options, Timeout: timeout}
}

// Invoke implements command.Invoker.
func (c *ChatInvoker) Invoke(ctx context.Context, systemPrompt, userText string) (string, error) {
	if c.Model == nil {
		return "", errors.New("no language model configured")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	opts := c.Options
	resp, err := c.Model.Chat(ctx, []framework.Message{
		{Role: framework.RoleSystem, Content: systemPrompt},
		{Role: framework.RoleUser, Content: userText},
	}, &opts)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text, nil
}
