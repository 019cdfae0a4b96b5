package command

// Action names shared across domains.
const (
	ActionChange            = "change"
	ActionMove              = "move"
	ActionMoveChart         = "move_chart"
	ActionMoveTable         = "move_table"
	ActionScale             = "scale"
	ActionReset             = "reset"
	ActionSelect            = "select"
	ActionSequence          = "sequence"
	ActionArithmetic        = "arithmetic"
	ActionConditionalFormat = "conditional_format"
	ActionImportData        = "import_data"
	ActionMergeCells        = "merge_cells"
	ActionGradientFormat    = "gradient_format"
	ActionCreateCohort      = "create_cohort"
	ActionLoadTemplate      = "load_template"
	ActionAddLayer          = "add_layer"
	ActionRemoveLayer       = "remove_layer"
	ActionConnect           = "connect"
	ActionListTables        = "list_tables"
	ActionDescribeTable     = "describe_table"
	ActionQuery             = "query"
	ActionDisconnect        = "disconnect"
)

// Payload is the typed, action-specific body of a Command. Executors switch
// on the concrete type.
type Payload interface {
	Action() string
}

// Change sets one property on the targets.
type Change struct {
	Target   Target
	Property string
	Value    interface{}
}

// Move shifts diagram elements by a relative {x, y} offset in Value.
type Move struct {
	Target Target
	Value  interface{}
}

// MoveChart pans the whole diagram canvas.
type MoveChart struct {
	Value interface{}
}

// MoveTable pans the whole table.
type MoveTable struct {
	Value interface{}
}

// Scale resizes the view or the targets by Factor.
type Scale struct {
	Target Target
	Factor float64
}

type Reset struct{}

type Select struct {
	Target Target
}

// Sequence fills the targets with Start, Start+Increment, ...
type Sequence struct {
	Target    Target
	Property  string
	Start     float64
	Increment float64
}

// Arithmetic applies Operation with Operand to every targeted value.
type Arithmetic struct {
	Target    Target
	Property  string
	Operation string
	Operand   float64
}

// Condition is the predicate of a conditional format. Threshold is a number
// for comparisons and a string for contains; Max is set only for between.
type Condition struct {
	Operator  string
	Threshold interface{}
	Max       *float64
}

type ConditionalFormat struct {
	Target    Target
	Condition Condition
	Property  string
	Value     interface{}
}

// ImportData writes Rows starting at StartCell (top-left when empty).
type ImportData struct {
	StartCell string
	Rows      [][]interface{}
}

type MergeCells struct {
	StartCell string
	EndCell   string
	Text      string
}

// Gradient is a color scale spread over the numeric range [Min, Max]; nil
// bounds mean the observed range.
type Gradient struct {
	Colors []string
	Min    *float64
	Max    *float64
}

type GradientFormat struct {
	Target   Target
	Property string
	Gradient Gradient
}

type CreateCohort struct {
	Data interface{}
}

type LoadTemplate struct {
	Template string
}

type AddLayer struct {
	Layer string
	Value interface{}
}

type RemoveLayer struct {
	Layer string
}

// Connect opens a database session. Params carries connection settings.
type Connect struct {
	Params map[string]interface{}
}

type ListTables struct{}

type DescribeTable struct {
	Table string
}

// Query is always bounded: normalization guarantees a LIMIT clause.
type Query struct {
	SQL string
}

type Disconnect struct{}

func (Change) Action() string            { return ActionChange }
func (Move) Action() string              { return ActionMove }
func (MoveChart) Action() string         { return ActionMoveChart }
func (MoveTable) Action() string         { return ActionMoveTable }
func (Scale) Action() string             { return ActionScale }
func (Reset) Action() string             { return ActionReset }
func (Select) Action() string            { return ActionSelect }
func (Sequence) Action() string          { return ActionSequence }
func (Arithmetic) Action() string        { return ActionArithmetic }
func (ConditionalFormat) Action() string { return ActionConditionalFormat }
func (ImportData) Action() string        { return ActionImportData }
func (MergeCells) Action() string        { return ActionMergeCells }
func (GradientFormat) Action() string    { return ActionGradientFormat }
func (CreateCohort) Action() string      { return ActionCreateCohort }
func (LoadTemplate) Action() string      { return ActionLoadTemplate }
func (AddLayer) Action() string          { return ActionAddLayer }
func (RemoveLayer) Action() string       { return ActionRemoveLayer }
func (Connect) Action() string           { return ActionConnect }
func (ListTables) Action() string        { return ActionListTables }
func (DescribeTable) Action() string     { return ActionDescribeTable }
func (Query) Action() string             { return ActionQuery }
func (Disconnect) Action() string        { return ActionDisconnect }

func stringField(obj Raw, key string) string {
	s, _ := obj[key].(string)
	return s
}

func numberField(obj Raw, key string, fallback float64) float64 {
	if n, ok := obj[key].(float64); ok {
		return n
	}
	return fallback
}

func objectField(obj Raw, key string) map[string]interface{} {
	m, _ := obj[key].(map[string]interface{})
	return m
}

func optionalNumber(m map[string]interface{}, key string) *float64 {
	if n, ok := m[key].(float64); ok {
		return &n
	}
	return nil
}
