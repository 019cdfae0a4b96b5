package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lexcodex/nlcommand/framework"
)

// InstrumentedModel wraps a LanguageModel and emits telemetry for prompts and responses.
type InstrumentedModel struct {
	Inner     framework.LanguageModel
	Telemetry framework.Telemetry
	Debug     bool
}

func NewInstrumentedModel(inner framework.LanguageModel, telemetry framework.Telemetry, debug bool) *InstrumentedModel {
	return &InstrumentedModel{Inner: inner, Telemetry: telemetry, Debug: debug}
}

func (m *InstrumentedModel) Generate(ctx context.Context, prompt string, options *framework.LLMOptions) (*framework.LLMResponse, error) {
	m.emitPrompt(ctx, "generate", map[string]interface{}{
		"model":          modelFromOptions(options),
		"prompt_chars":   len(prompt),
		"prompt_preview": clip(prompt, 1024),
	}, map[string]interface{}{"prompt": clip(prompt, 8192)})
	start := time.Now()
	resp, err := m.Inner.Generate(ctx, prompt, options)
	m.emitResponse(ctx, "generate", resp, err, time.Since(start))
	return resp, err
}

func (m *InstrumentedModel) Chat(ctx context.Context, messages []framework.Message, options *framework.LLMOptions) (*framework.LLMResponse, error) {
	base, debug := chatMeta(messages, options)
	m.emitPrompt(ctx, "chat", base, debug)
	start := time.Now()
	resp, err := m.Inner.Chat(ctx, messages, options)
	m.emitResponse(ctx, "chat", resp, err, time.Since(start))
	return resp, err
}

func chatMeta(messages []framework.Message, options *framework.LLMOptions) (map[string]interface{}, map[string]interface{}) {
	roles := make([]string, 0, len(messages))
	preview := make([]map[string]interface{}, 0, min(len(messages), 20))
	for i, msg := range messages {
		if i >= 20 {
			break
		}
		roles = append(roles, msg.Role)
		preview = append(preview, map[string]interface{}{
			"role":    msg.Role,
			"content": clip(msg.Content, 512),
		})
	}
	base := map[string]interface{}{
		"model":            modelFromOptions(options),
		"json_mode":        options != nil && options.JSON,
		"message_count":    len(messages),
		"roles":            roles,
		"messages_preview": preview,
	}
	full := make([]map[string]interface{}, 0, len(messages))
	for _, msg := range messages {
		full = append(full, map[string]interface{}{
			"role":    msg.Role,
			"content": clip(msg.Content, 8192),
		})
	}
	return base, map[string]interface{}{"messages": full}
}

func (m *InstrumentedModel) emitPrompt(ctx context.Context, kind string, base map[string]interface{}, debugFields map[string]interface{}) {
	if m == nil || m.Telemetry == nil {
		return
	}
	req, _ := framework.RequestContextFrom(ctx)
	metadata := map[string]interface{}{
		"kind": kind,
	}
	for k, v := range base {
		metadata[k] = v
	}
	if m.Debug {
		for k, v := range debugFields {
			metadata[k] = v
		}
	}
	m.Telemetry.Emit(framework.Event{
		Type:      framework.EventLLMPrompt,
		RequestID: req.ID,
		Domain:    req.Domain,
		Timestamp: time.Now().UTC(),
		Message:   fmt.Sprintf("llm %s prompt", kind),
		Metadata:  metadata,
	})
}

func (m *InstrumentedModel) emitResponse(ctx context.Context, kind string, resp *framework.LLMResponse, err error, elapsed time.Duration) {
	if m == nil || m.Telemetry == nil {
		return
	}
	req, _ := framework.RequestContextFrom(ctx)
	metadata := map[string]interface{}{
		"kind":        kind,
		"duration_ms": elapsed.Milliseconds(),
	}
	if resp != nil {
		metadata["finish_reason"] = resp.FinishReason
		metadata["text_preview"] = clip(resp.Text, 1024)
		metadata["usage"] = resp.Usage
	}
	if err != nil {
		metadata["error"] = err.Error()
	}
	m.Telemetry.Emit(framework.Event{
		Type:      framework.EventLLMResponse,
		RequestID: req.ID,
		Domain:    req.Domain,
		Timestamp: time.Now().UTC(),
		Message:   fmt.Sprintf("llm %s response", kind),
		Metadata:  metadata,
	})
}

func modelFromOptions(options *framework.LLMOptions) string {
	if options != nil && options.Model != "" {
		return options.Model
	}
	return ""
}

func clip(s string, limit int) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}
