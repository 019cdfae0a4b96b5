package command

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DomainContext is the live state a caller shares with the model: loaded
// templates and layers, grid dimensions, element ids, known tables.
type DomainContext map[string]interface{}

// SystemPrompt renders the instructions for one domain followed by the
// caller's live context. The output is deterministic for a given context.
func (s *Schema) SystemPrompt(ctx DomainContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You translate user requests into commands for the %s domain.\n", s.Domain)
	if s.Description != "" {
		b.WriteString(s.Description)
		b.WriteString("\n")
	}
	b.WriteString("Respond with a single JSON object and nothing else. Do not add prose or code fences.\n")

	b.WriteString("\nActions:\n")
	for _, action := range s.Actions {
		fmt.Fprintf(&b, "- %s", action)
		if req := s.Required[action]; len(req) > 0 {
			fmt.Fprintf(&b, " (requires: %s)", strings.Join(req, ", "))
		}
		b.WriteString("\n")
	}

	if len(s.Properties) > 0 {
		fmt.Fprintf(&b, "\nProperties: %s\n", strings.Join(s.Properties, ", "))
	}
	if len(s.NumericProperties) > 0 {
		fmt.Fprintf(&b, "Numeric properties (value must be a number): %s\n", strings.Join(s.NumericProperties, ", "))
	}
	if len(s.Fields) > 0 {
		b.WriteString("\nFields:\n")
		names := make([]string, 0, len(s.Fields))
		for name := range s.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- %s: %s\n", name, s.Fields[name])
		}
	}

	b.WriteString("\nTargets:\n")
	if s.SplitTargets {
		b.WriteString("- target is a single id or an array of ids.\n")
	} else {
		b.WriteString("- target is a single name.\n")
	}
	if s.Domain == DomainTable {
		b.WriteString("- use \"all\" for every cell, \"row-N\" for a whole row and \"col-N\" for a whole column (N starts at 0).\n")
	}

	if len(s.Guidance) > 0 {
		b.WriteString("\nRules:\n")
		for _, g := range s.Guidance {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}

	if len(s.Examples) > 0 {
		b.WriteString("\nExamples:\n")
		for _, action := range s.Actions {
			for _, ex := range s.Examples[action] {
				fmt.Fprintf(&b, "User: %s\n%s\n", ex.Request, ex.Command)
			}
		}
	}

	if len(s.ContextKeys) > 0 {
		b.WriteString("\nContext keys:\n")
		for _, k := range s.ContextKeys {
			fmt.Fprintf(&b, "- %s: %s\n", k.Key, k.Description)
		}
	}
	if len(ctx) > 0 {
		b.WriteString("\nCurrent context:\n")
		data, err := json.MarshalIndent(map[string]interface{}(ctx), "", "  ")
		if err != nil {
			fmt.Fprintf(&b, "%v\n", map[string]interface{}(ctx))
		} else {
			b.Write(data)
			b.WriteString("\n")
		}
	}
	return b.String()
}
