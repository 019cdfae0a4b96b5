package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lexcodex/nlcommand/command"
	"github.com/lexcodex/nlcommand/framework"
	"github.com/lexcodex/nlcommand/internal/config"
	"github.com/lexcodex/nlcommand/llm"
	"github.com/lexcodex/nlcommand/persistence"
)

// pipeline bundles the shared runtime pieces a command needs.
type pipeline struct {
	Invoker   command.Invoker
	Telemetry framework.Telemetry
	History   persistence.HistoryStore

	closers []io.Closer
}

// openPipeline builds the model invoker, the telemetry fan-out, and the
// history store from cfg. History is opened only when withHistory is set
// and the config enables it.
func openPipeline(ctx context.Context, cfg config.Config, log *zap.Logger, withHistory bool) (*pipeline, error) {
	p := &pipeline{}
	sinks := []framework.Telemetry{framework.ZapTelemetry{Logger: log}}
	if eventsFile != "" {
		file, err := framework.NewJSONFileTelemetry(eventsFile)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, file)
		p.closers = append(p.closers, file)
	}
	if withHistory && cfg.History.Enabled {
		store, err := persistence.NewSQLiteHistoryStore(cfg.History.Path)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		p.History = store
		p.closers = append(p.closers, store)
		sinks = append(sinks, persistence.NewHistorySink(store, log))
	}
	p.Telemetry = framework.MultiplexTelemetry{Sinks: sinks}

	model, err := llm.New(ctx, cfg.Model, log)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	instrumented := llm.NewInstrumentedModel(model, p.Telemetry, cfg.Model.Debug)
	p.Invoker = llm.NewChatInvoker(instrumented, llm.Options(cfg.Model), cfg.Model.Timeout)
	return p, nil
}

// Interpreter returns an interpreter for schema sharing the pipeline's model.
func (p *pipeline) Interpreter(schema *command.Schema) *command.Interpreter {
	return command.NewInterpreter(schema, p.Invoker, p.Telemetry)
}

// Close releases the history store and any event file.
func (p *pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

// lookupSchema resolves a domain argument.
func lookupSchema(name string) (*command.Schema, error) {
	schema, ok := command.Lookup(name)
	if !ok {
		var names []string
		for _, s := range command.Schemas() {
			names = append(names, string(s.Domain))
		}
		return nil, fmt.Errorf("unknown domain %q (expected one of %s)", name, strings.Join(names, ", "))
	}
	return schema, nil
}

// readContextFile loads a domain context from a JSON or YAML file.
func readContextFile(path string) (command.DomainContext, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ctx := command.DomainContext{}
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("parse context %s: %w", path, err)
	}
	return ctx, nil
}

// readInput returns the contents of path, or stdin for "-" or "".
func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// readConfigMap deserializes the config file into a generic map for dotted lookups.
func readConfigMap(path string) (map[string]interface{}, error) {
	data := map[string]interface{}{}
	bytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(bytes, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// writeConfigMap persists the config map back to YAML, creating directories.
func writeConfigMap(path string, data map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	bytes, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bytes, 0o644)
}

// getConfigValue traverses a nested map using dotted notation.
func getConfigValue(data map[string]interface{}, key string) (interface{}, bool) {
	var current interface{} = data
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		value, ok := m[part]
		if !ok {
			return nil, false
		}
		current = value
	}
	return current, true
}

// setConfigValue mutates or creates nested keys referenced via dotted notation.
func setConfigValue(data map[string]interface{}, key string, value interface{}) error {
	parts := strings.Split(key, ".")
	current := data
	for i, part := range parts {
		if part == "" {
			return fmt.Errorf("invalid key %q", key)
		}
		if i == len(parts)-1 {
			current[part] = value
			return nil
		}
		next, ok := current[part].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			current[part] = next
		}
		current = next
	}
	return nil
}

// parseValue coerces CLI input into bool/int/float before storing.
func parseValue(input string) interface{} {
	if b, err := strconv.ParseBool(input); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(input, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(input, 64); err == nil {
		return f
	}
	return input
}

// prettyValue renders nested values in a human-readable one-line format.
func prettyValue(v interface{}) string {
	switch value := v.(type) {
	case []interface{}:
		var parts []string
		for _, item := range value {
			parts = append(parts, prettyValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]interface{}:
		b, _ := yaml.Marshal(value)
		return strings.TrimSpace(string(b))
	default:
		return fmt.Sprint(value)
	}
}
