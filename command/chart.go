package command

var chartActions = []string{ActionLoadTemplate, ActionAddLayer, ActionRemoveLayer, ActionChange, ActionReset}

// Chart covers the template composer. Callers are expected to open a session
// with load_template; add_layer is undone by a remove_layer naming the same
// layer. Neither ordering is enforced here.
var Chart = register(&Schema{
	Domain:      DomainChart,
	Description: "The chart composer builds a chart from a base template plus stackable layers.",
	Actions:     chartActions,
	Required: map[string][]string{
		ActionLoadTemplate: {"template"},
		ActionAddLayer:     {"layer"},
		ActionRemoveLayer:  {"layer"},
		ActionChange:       {"target", "property"},
	},
	Fields: map[string]FieldKind{
		"template": KindString,
		"layer":    KindString,
	},
	Properties:        []string{"fill", "stroke", "strokeWidth", "opacity", "color", "text", "fontSize", "x", "y", "width", "height"},
	NumericProperties: []string{"strokeWidth", "opacity", "fontSize", "x", "y", "width", "height"},
	SplitTargets:      true,
	Promote:           promoteChart,
	Guidance: []string{
		"The first command of a session must be load_template; pick a template from the loaded list.",
		"Layers are reversible: remove_layer with the same layer name undoes an add_layer.",
		"change targets are chart parts such as \"title\", \"bars\", \"axis-x\", or a layer name.",
	},
	Examples: map[string][]Example{
		ActionLoadTemplate: {{Request: "start a monthly revenue bar chart", Command: `{"action":"load_template","template":"bar-monthly"}`}},
		ActionAddLayer:     {{Request: "overlay a trend line", Command: `{"action":"add_layer","layer":"trendline"}`}},
		ActionRemoveLayer:  {{Request: "drop the trend line again", Command: `{"action":"remove_layer","layer":"trendline"}`}},
		ActionChange: {
			{Request: "make the bars orange and a bit see-through", Command: `{"action":"change","target":"bars","property":"opacity","value":0.7}`},
			{Request: "rename the title to Revenue 2024", Command: `{"action":"change","target":"title","property":"text","value":"Revenue 2024"}`},
		},
		ActionReset: {{Request: "clear the chart", Command: `{"action":"reset"}`}},
	},
	ContextKeys: []ContextKey{
		{Key: "templates", Description: "templates available to load_template"},
		{Key: "loaded_template", Description: "the template currently loaded, if any"},
		{Key: "layers", Description: "layers currently applied, bottom to top"},
	},
})

func promoteChart(c *Command) (Payload, error) {
	switch c.Action {
	case ActionLoadTemplate:
		return LoadTemplate{Template: stringField(c.fields, "template")}, nil
	case ActionAddLayer:
		return AddLayer{Layer: stringField(c.fields, "layer"), Value: c.Value}, nil
	case ActionRemoveLayer:
		return RemoveLayer{Layer: stringField(c.fields, "layer")}, nil
	case ActionChange:
		return Change{Target: c.Target, Property: c.Property, Value: c.Value}, nil
	case ActionReset:
		return Reset{}, nil
	}
	return nil, &InvalidActionError{Action: c.Action, Valid: chartActions}
}
