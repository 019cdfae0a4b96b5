package command

import "errors"

var (
	tableActions = []string{
		ActionChange, ActionSelect, ActionMoveTable, ActionScale, ActionReset,
		ActionSequence, ActionArithmetic, ActionConditionalFormat, ActionImportData,
		ActionMergeCells, ActionGradientFormat, ActionCreateCohort,
	}
	tableProperties = append(append([]string(nil), diagramProperties...), "fontWeight", "align", "value")

	arithmeticOperations = map[string]string{
		"add": "add", "+": "add",
		"subtract": "subtract", "-": "subtract",
		"multiply": "multiply", "*": "multiply", "x": "multiply",
		"divide": "divide", "/": "divide",
	}
	conditionOperators = map[string]string{
		"gt": "gt", ">": "gt",
		"gte": "gte", ">=": "gte",
		"lt": "lt", "<": "lt",
		"lte": "lte", "<=": "lte",
		"eq": "eq", "=": "eq", "==": "eq",
		"neq": "neq", "!=": "neq",
		"between":  "between",
		"contains": "contains",
	}
)

// Table covers the spreadsheet surface. Targets may use the row-N, col-N,
// and all shorthands.
var Table = register(&Schema{
	Domain:      DomainTable,
	Description: "The table is a spreadsheet-like grid of cells addressed by identifier, row, or column.",
	Actions:     tableActions,
	Required: map[string][]string{
		ActionChange:            {"target", "property"},
		ActionSelect:            {"target"},
		ActionMoveTable:         {"value"},
		ActionScale:             {"value"},
		ActionSequence:          {"target", "start"},
		ActionArithmetic:        {"target", "operation", "operand"},
		ActionConditionalFormat: {"target", "condition"},
		ActionImportData:        {"value"},
		ActionMergeCells:        {"start_cell", "end_cell"},
		ActionGradientFormat:    {"target", "gradient"},
		ActionCreateCohort:      {"cohort_data"},
	},
	Fields: map[string]FieldKind{
		"start":       KindNumber,
		"increment":   KindNumber,
		"operation":   KindString,
		"operand":     KindNumber,
		"condition":   KindObject,
		"start_cell":  KindString,
		"end_cell":    KindString,
		"merge_text":  KindString,
		"gradient":    KindObject,
		"cohort_data": KindCollection,
	},
	Properties:        tableProperties,
	NumericProperties: []string{"fontSize"},
	SplitTargets:      true,
	Rules: map[string]Rule{
		ActionMoveTable:         offsetRule,
		ActionArithmetic:        arithmeticRule,
		ActionConditionalFormat: conditionRule,
		ActionImportData:        importRule,
		ActionGradientFormat:    gradientRule,
	},
	Steps:   []Step{offsetStep, scaleStep, arithmeticStep, conditionStep, gradientStep},
	Promote: promoteTable,
	Guidance: []string{
		"Targets are cell identifiers, an array of them, or the shorthands \"all\", \"row-N\", \"col-N\" (zero-based).",
		"Colors are hex strings such as \"#3b82f6\".",
		"arithmetic.operation is one of add, subtract, multiply, divide.",
		"condition.operator is one of gt, gte, lt, lte, eq, neq, between, contains; between also needs max.",
		"gradient.colors lists at least two colors from low to high; min and max are optional bounds.",
		"import_data.value is a 2-D array of rows.",
	},
	Examples: map[string][]Example{
		ActionChange: {
			{Request: "make the first row blue", Command: `{"action":"change","target":"row-0","property":"fill","value":"#3b82f6"}`},
			{Request: "bold the header cells A1 and B1", Command: `{"action":"change","target":["A1","B1"],"property":"fontWeight","value":"bold"}`},
		},
		ActionSelect:    {{Request: "select the second column", Command: `{"action":"select","target":"col-1"}`}},
		ActionMoveTable: {{Request: "shift the table 50px to the left", Command: `{"action":"move_table","value":{"x":-50}}`}},
		ActionScale:     {{Request: "zoom out to 80%", Command: `{"action":"scale","value":0.8}`}},
		ActionReset:     {{Request: "start over", Command: `{"action":"reset"}`}},
		ActionSequence: {{Request: "number the first column from 1",
			Command: `{"action":"sequence","target":"col-0","property":"value","start":1,"increment":1}`}},
		ActionArithmetic: {{Request: "double every value in column C",
			Command: `{"action":"arithmetic","target":"col-2","property":"value","operation":"multiply","operand":2}`}},
		ActionConditionalFormat: {{Request: "highlight scores above 90 in green",
			Command: `{"action":"conditional_format","target":"col-3","condition":{"operator":"gt","threshold":90},"property":"fill","value":"#22c55e"}`}},
		ActionImportData: {{Request: "fill in a small header and two rows",
			Command: `{"action":"import_data","start_cell":"A1","value":[["name","score"],["ana",91],["ben",78]]}`}},
		ActionMergeCells: {{Request: "merge A1 through C1 into a title",
			Command: `{"action":"merge_cells","start_cell":"A1","end_cell":"C1","merge_text":"Quarterly results"}`}},
		ActionGradientFormat: {{Request: "color the revenue column from red to green",
			Command: `{"action":"gradient_format","target":"col-4","gradient":{"colors":["#ef4444","#22c55e"]}}`}},
		ActionCreateCohort: {{Request: "build a retention cohort from this signup data",
			Command: `{"action":"create_cohort","cohort_data":{"cohorts":["2024-01","2024-02"],"periods":3,"values":[[100,62,40],[120,70]]}}`}},
	},
	ContextKeys: []ContextKey{
		{Key: "rows", Description: "number of rows in the grid"},
		{Key: "cols", Description: "number of columns in the grid"},
		{Key: "cells", Description: "a sample of cell identifiers and their values"},
	},
})

func arithmeticRule(obj Raw) error {
	op := stringField(obj, "operation")
	if _, ok := arithmeticOperations[op]; !ok {
		return NewInvalidTypeError("operation", "one of add, subtract, multiply, divide", obj["operation"])
	}
	return nil
}

var errDivideByZero = errors.New("division by zero")

func arithmeticStep(action string, obj Raw) error {
	if action != ActionArithmetic {
		return nil
	}
	op := arithmeticOperations[stringField(obj, "operation")]
	obj["operation"] = op
	if operand, ok := obj["operand"].(float64); ok && op == "divide" && operand == 0 {
		return NewInvalidNumericValueError("operand", operand, errDivideByZero)
	}
	return nil
}

func conditionRule(obj Raw) error {
	cond := objectField(obj, "condition")
	rawOp, ok := cond["operator"]
	if !ok || isBlank(rawOp) {
		return NewMissingFieldError("condition.operator", ActionConditionalFormat)
	}
	opName, _ := rawOp.(string)
	op, known := conditionOperators[opName]
	if !known {
		return NewInvalidTypeError("condition.operator", "one of gt, gte, lt, lte, eq, neq, between, contains", rawOp)
	}
	threshold, ok := cond["threshold"]
	if !ok || isBlank(threshold) {
		return NewMissingFieldError("condition.threshold", ActionConditionalFormat)
	}
	if op == "contains" {
		if _, isString := threshold.(string); !isString {
			return NewInvalidTypeError("condition.threshold", "string", threshold)
		}
		return nil
	}
	if !matchesKind(KindNumber, threshold) {
		return NewInvalidTypeError("condition.threshold", "number", threshold)
	}
	if op != "between" {
		return nil
	}
	ceiling, ok := cond["max"]
	if !ok || isBlank(ceiling) {
		return NewMissingFieldError("condition.max", ActionConditionalFormat)
	}
	if !matchesKind(KindNumber, ceiling) {
		return NewInvalidTypeError("condition.max", "number", ceiling)
	}
	return nil
}

var errEmptyRange = errors.New("max is below threshold")

// conditionStep canonicalises the operator and coerces numeric bounds.
func conditionStep(action string, obj Raw) error {
	if action != ActionConditionalFormat {
		return nil
	}
	cond := objectField(obj, "condition")
	op := conditionOperators[stringField(Raw(cond), "operator")]
	cond["operator"] = op
	if op == "contains" {
		return nil
	}
	threshold, err := coerceNumber("condition.threshold", cond["threshold"])
	if err != nil {
		return err
	}
	cond["threshold"] = threshold
	if op != "between" {
		return nil
	}
	ceiling, err := coerceNumber("condition.max", cond["max"])
	if err != nil {
		return err
	}
	if ceiling < threshold {
		return NewInvalidNumericValueError("condition.max", ceiling, errEmptyRange)
	}
	cond["max"] = ceiling
	return nil
}

func importRule(obj Raw) error {
	if !matchesKind(KindMatrix, obj["value"]) {
		return NewInvalidTypeError("value", string(KindMatrix), obj["value"])
	}
	return nil
}

func gradientRule(obj Raw) error {
	gradient := objectField(obj, "gradient")
	colors, ok := gradient["colors"]
	if !ok || colors == nil {
		return NewMissingFieldError("gradient.colors", ActionGradientFormat)
	}
	list, isList := colors.([]interface{})
	if !isList || len(list) < 2 {
		return NewInvalidTypeError("gradient.colors", "array of at least two colors", colors)
	}
	for _, c := range list {
		if s, isString := c.(string); !isString || s == "" {
			return NewInvalidTypeError("gradient.colors", "array of color strings", colors)
		}
	}
	for _, bound := range []string{"max", "min"} {
		if v, present := gradient[bound]; present && v != nil && !matchesKind(KindNumber, v) {
			return NewInvalidTypeError("gradient."+bound, "number", v)
		}
	}
	return nil
}

func gradientStep(action string, obj Raw) error {
	if action != ActionGradientFormat {
		return nil
	}
	gradient := objectField(obj, "gradient")
	for _, bound := range []string{"min", "max"} {
		v, present := gradient[bound]
		if !present || v == nil {
			continue
		}
		n, err := coerceNumber("gradient."+bound, v)
		if err != nil {
			return err
		}
		gradient[bound] = n
	}
	return nil
}

func promoteTable(c *Command) (Payload, error) {
	f := c.fields
	switch c.Action {
	case ActionChange:
		return Change{Target: c.Target, Property: c.Property, Value: c.Value}, nil
	case ActionSelect:
		return Select{Target: c.Target}, nil
	case ActionMoveTable:
		return MoveTable{Value: c.Value}, nil
	case ActionScale:
		return Scale{Target: c.Target, Factor: numberField(f, "value", 1)}, nil
	case ActionReset:
		return Reset{}, nil
	case ActionSequence:
		return Sequence{
			Target:    c.Target,
			Property:  c.Property,
			Start:     numberField(f, "start", 0),
			Increment: numberField(f, "increment", 1),
		}, nil
	case ActionArithmetic:
		return Arithmetic{
			Target:    c.Target,
			Property:  c.Property,
			Operation: stringField(f, "operation"),
			Operand:   numberField(f, "operand", 0),
		}, nil
	case ActionConditionalFormat:
		cond := objectField(f, "condition")
		return ConditionalFormat{
			Target: c.Target,
			Condition: Condition{
				Operator:  stringField(Raw(cond), "operator"),
				Threshold: cloneValue(cond["threshold"]),
				Max:       optionalNumber(cond, "max"),
			},
			Property: c.Property,
			Value:    c.Value,
		}, nil
	case ActionImportData:
		rows, _ := f["value"].([]interface{})
		out := make([][]interface{}, 0, len(rows))
		for _, row := range rows {
			cells, _ := cloneValue(row).([]interface{})
			out = append(out, cells)
		}
		return ImportData{StartCell: stringField(f, "start_cell"), Rows: out}, nil
	case ActionMergeCells:
		return MergeCells{
			StartCell: stringField(f, "start_cell"),
			EndCell:   stringField(f, "end_cell"),
			Text:      stringField(f, "merge_text"),
		}, nil
	case ActionGradientFormat:
		gradient := objectField(f, "gradient")
		list, _ := gradient["colors"].([]interface{})
		colors := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				colors = append(colors, s)
			}
		}
		return GradientFormat{
			Target:   c.Target,
			Property: c.Property,
			Gradient: Gradient{
				Colors: colors,
				Min:    optionalNumber(gradient, "min"),
				Max:    optionalNumber(gradient, "max"),
			},
		}, nil
	case ActionCreateCohort:
		return CreateCohort{Data: cloneValue(f["cohort_data"])}, nil
	}
	return nil, &InvalidActionError{Action: c.Action, Valid: tableActions}
}
