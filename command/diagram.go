package command

var (
	diagramActions    = []string{ActionChange, ActionMove, ActionMoveChart, ActionScale, ActionReset}
	diagramProperties = []string{"fill", "stroke", "textColor", "fontSize", "text", "x", "y", "width", "height"}
)

// Diagram covers the flowchart editor: restyling, moving, and scaling
// elements and panning the canvas.
var Diagram = register(&Schema{
	Domain:      DomainDiagram,
	Description: "The diagram editor holds shapes, connectors, and text boxes on a pannable canvas.",
	Actions:     diagramActions,
	Required: map[string][]string{
		ActionChange:    {"target", "property"},
		ActionMove:      {"target"},
		ActionMoveChart: {"value"},
		ActionScale:     {"value"},
	},
	Properties:        diagramProperties,
	NumericProperties: []string{"fontSize", "width", "height", "x", "y"},
	SplitTargets:      true,
	Rules: map[string]Rule{
		ActionMove:      offsetRule,
		ActionMoveChart: offsetRule,
	},
	Steps:   []Step{offsetStep, scaleStep},
	Promote: promoteDiagram,
	Guidance: []string{
		"Colors are hex strings such as \"#3b82f6\".",
		"For move and move_chart, value is a relative offset object like {\"x\": 40, \"y\": -20}.",
		"For scale, value is a positive zoom factor (1 = 100%).",
		"Use reset to restore the original layout.",
	},
	Examples: map[string][]Example{
		ActionChange: {
			{Request: "make the start box blue", Command: `{"action":"change","target":"start","property":"fill","value":"#3b82f6"}`},
			{Request: "set the font size of sq1 and sq2 to 14", Command: `{"action":"change","target":["sq1","sq2"],"property":"fontSize","value":14}`},
		},
		ActionMove:      {{Request: "nudge the decision node 40px right", Command: `{"action":"move","target":"decision","value":{"x":40}}`}},
		ActionMoveChart: {{Request: "pan the canvas up a bit", Command: `{"action":"move_chart","value":{"y":-100}}`}},
		ActionScale:     {{Request: "zoom to 150%", Command: `{"action":"scale","value":1.5}`}},
		ActionReset:     {{Request: "undo all my changes", Command: `{"action":"reset"}`}},
	},
	ContextKeys: []ContextKey{
		{Key: "elements", Description: "identifiers and types of the elements on the canvas"},
		{Key: "selection", Description: "identifiers currently selected by the user"},
	},
})

func promoteDiagram(c *Command) (Payload, error) {
	switch c.Action {
	case ActionChange:
		return Change{Target: c.Target, Property: c.Property, Value: c.Value}, nil
	case ActionMove:
		return Move{Target: c.Target, Value: c.Value}, nil
	case ActionMoveChart:
		return MoveChart{Value: c.Value}, nil
	case ActionScale:
		return Scale{Target: c.Target, Factor: numberField(c.fields, "value", 1)}, nil
	case ActionReset:
		return Reset{}, nil
	}
	return nil, &InvalidActionError{Action: c.Action, Valid: diagramActions}
}
