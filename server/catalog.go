package server

import (
	"sort"

	"github.com/lexcodex/nlcommand/command"
)

// DomainInfo is the public description of one domain schema.
type DomainInfo struct {
	Domain            string            `json:"domain"`
	Description       string            `json:"description"`
	Actions           []ActionInfo      `json:"actions"`
	Properties        []string          `json:"properties,omitempty"`
	NumericProperties []string          `json:"numeric_properties,omitempty"`
	Fields            map[string]string `json:"fields,omitempty"`
	SplitTargets      bool              `json:"split_targets"`
	ContextKeys       []ContextKeyInfo  `json:"context_keys,omitempty"`
}

// ActionInfo lists an action, its required fields, and example commands.
type ActionInfo struct {
	Name     string   `json:"name"`
	Required []string `json:"required,omitempty"`
	Examples []string `json:"examples,omitempty"`
}

// ContextKeyInfo documents a domain context key.
type ContextKeyInfo struct {
	Key         string `json:"key"`
	Description string `json:"description"`
}

// Describe renders a schema for the catalogue endpoints and the CLI.
func Describe(schema *command.Schema) DomainInfo {
	info := DomainInfo{
		Domain:            string(schema.Domain),
		Description:       schema.Description,
		Properties:        append([]string(nil), schema.Properties...),
		NumericProperties: append([]string(nil), schema.NumericProperties...),
		SplitTargets:      schema.SplitTargets,
	}
	for _, action := range schema.Actions {
		a := ActionInfo{Name: action, Required: schema.RequiredFields(action)}
		for _, ex := range schema.Examples[action] {
			a.Examples = append(a.Examples, ex.Command)
		}
		info.Actions = append(info.Actions, a)
	}
	if len(schema.Fields) > 0 {
		info.Fields = make(map[string]string, len(schema.Fields))
		names := make([]string, 0, len(schema.Fields))
		for name := range schema.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			info.Fields[name] = string(schema.Fields[name])
		}
	}
	for _, k := range schema.ContextKeys {
		info.ContextKeys = append(info.ContextKeys, ContextKeyInfo{Key: k.Key, Description: k.Description})
	}
	return info
}
