package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lexcodex/nlcommand/framework"
)

// ErrEmptyInput is returned when the user request has no text.
var ErrEmptyInput = errors.New("empty user input")

// Invoker sends a composed system prompt plus the user's text to a language
// model and returns whatever text came back. Timeouts and retries belong to
// the implementation or the caller.
type Invoker interface {
	Invoke(ctx context.Context, systemPrompt, userText string) (string, error)
}

// InvokerFunc adapts a plain function to Invoker.
type InvokerFunc func(ctx context.Context, systemPrompt, userText string) (string, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, systemPrompt, userText string) (string, error) {
	return f(ctx, systemPrompt, userText)
}

// Request is one interpretation input.
type Request struct {
	UserInput string
	Context   DomainContext
}

// Interpreter runs the full pipeline for one domain. It holds no per-request
// state and may be shared between goroutines.
type Interpreter struct {
	Schema    *Schema
	Invoker   Invoker
	Telemetry framework.Telemetry
}

// NewInterpreter wires an interpreter. A nil telemetry sink discards events.
func NewInterpreter(schema *Schema, invoker Invoker, telemetry framework.Telemetry) *Interpreter {
	if telemetry == nil {
		telemetry = framework.NopTelemetry{}
	}
	return &Interpreter{Schema: schema, Invoker: invoker, Telemetry: telemetry}
}

// Interpret composes the prompt, calls the model once and turns its output
// into a Command. Any failure is terminal; nothing is retried here.
func (i *Interpreter) Interpret(ctx context.Context, req Request) (*Command, error) {
	if i.Schema == nil || i.Invoker == nil {
		return nil, errors.New("interpreter not configured")
	}
	input := strings.TrimSpace(req.UserInput)
	if input == "" {
		return nil, ErrEmptyInput
	}
	start := time.Now()
	i.emit(ctx, framework.EventCommandRequest, "command request", map[string]interface{}{
		"input": input,
	})

	prompt := i.Schema.SystemPrompt(req.Context)
	raw, err := i.Invoker.Invoke(ctx, prompt, input)
	if err != nil {
		err = &ModelError{Cause: err}
		i.reject(ctx, input, "", start, err)
		return nil, err
	}
	cmd, err := i.Schema.Process(raw)
	if err != nil {
		i.reject(ctx, input, raw, start, err)
		return nil, err
	}
	i.emit(ctx, framework.EventCommandAccepted, fmt.Sprintf("%s accepted", cmd.Action), map[string]interface{}{
		"input":       input,
		"raw_output":  raw,
		"action":      cmd.Action,
		"command":     cmd.fields.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return cmd, nil
}

func (i *Interpreter) reject(ctx context.Context, input, raw string, start time.Time, err error) {
	i.emit(ctx, framework.EventCommandRejected, err.Error(), map[string]interface{}{
		"input":       input,
		"raw_output":  raw,
		"error_kind":  string(KindOf(err)),
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (i *Interpreter) emit(ctx context.Context, typ framework.EventType, message string, metadata map[string]interface{}) {
	if i.Telemetry == nil {
		return
	}
	event := framework.Event{
		Type:      typ,
		Domain:    string(i.Schema.Domain),
		Message:   message,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}
	if rc, ok := framework.RequestContextFrom(ctx); ok {
		event.RequestID = rc.ID
	}
	i.Telemetry.Emit(event)
}
