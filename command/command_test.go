package command

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaExamplesProcess(t *testing.T) {
	for _, schema := range Schemas() {
		for _, action := range schema.Actions {
			examples := schema.Examples[action]
			require.NotEmpty(t, examples, "%s/%s has no example", schema.Domain, action)
			for _, ex := range examples {
				t.Run(string(schema.Domain)+"/"+action, func(t *testing.T) {
					cmd, err := schema.Process(ex.Command)
					require.NoError(t, err, ex.Command)
					assert.Equal(t, schema.Domain, cmd.Domain)
					assert.Equal(t, action, cmd.Action)
					require.NotNil(t, cmd.Payload)
					assert.Equal(t, action, cmd.Payload.Action())
					fields := cmd.Fields()
					for _, field := range schema.RequiredFields(action) {
						assert.False(t, isBlank(fields[field]), "required field %s missing", field)
					}
				})
			}
		}
	}
}

func TestLookup(t *testing.T) {
	s, ok := Lookup(" Table ")
	require.True(t, ok)
	assert.Same(t, Table, s)

	_, ok = Lookup("spreadsheet")
	assert.False(t, ok)

	var names []Domain
	for _, s := range Schemas() {
		names = append(names, s.Domain)
	}
	assert.Equal(t, []Domain{DomainChart, DomainDatabase, DomainDiagram, DomainTable}, names)
}

func TestTableChangeShorthandUnchanged(t *testing.T) {
	input := `{"action":"change","target":"row-0","property":"fill","value":"#3b82f6"}`
	cmd, err := Table.Process(input)
	require.NoError(t, err)

	want, err := Decode(input)
	require.NoError(t, err)
	if diff := cmp.Diff(want, cmd.Fields()); diff != "" {
		t.Fatalf("normalized command changed (-want +got):\n%s", diff)
	}
	assert.Equal(t, "row-0", cmd.Target.Shorthand)
	change, ok := cmd.Payload.(Change)
	require.True(t, ok)
	assert.Equal(t, "fill", change.Property)
	assert.Equal(t, "#3b82f6", change.Value)
}

func TestDiagramChangeSplitsAndCoerces(t *testing.T) {
	cmd, err := Diagram.Process(`{"action":"change","target":"sq1,sq2","property":"fontSize","value":"14"}`)
	require.NoError(t, err)

	want := Raw{
		"action":   "change",
		"target":   []interface{}{"sq1", "sq2"},
		"property": "fontSize",
		"value":    float64(14),
	}
	if diff := cmp.Diff(want, cmd.Fields()); diff != "" {
		t.Fatalf("unexpected command (-want +got):\n%s", diff)
	}
	assert.Equal(t, Target{IDs: []string{"sq1", "sq2"}, List: true}, cmd.Target)
	_, single := cmd.Target.Single()
	assert.False(t, single)
}

func TestCommandMarshalJSON(t *testing.T) {
	cmd, err := Database.Process(`{"action":"query","sql":"SELECT * FROM t"}`)
	require.NoError(t, err)

	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"query","sql":"SELECT * FROM t LIMIT 100"}`, string(data))
	assert.Equal(t, `database/query {"action":"query","sql":"SELECT * FROM t LIMIT 100"}`, cmd.String())
}

func TestCommandFieldsIsCopy(t *testing.T) {
	cmd, err := Table.Process(`{"action":"gradient_format","target":"col-1","gradient":{"colors":["#fff","#000"],"min":"0"}}`)
	require.NoError(t, err)

	fields := cmd.Fields()
	fields["gradient"].(map[string]interface{})["min"] = 99.0
	assert.Equal(t, 0.0, cmd.Fields()["gradient"].(map[string]interface{})["min"])

	payload := cmd.Payload.(GradientFormat)
	require.NotNil(t, payload.Gradient.Min)
	assert.Equal(t, 0.0, *payload.Gradient.Min)
	assert.Nil(t, payload.Gradient.Max)
	assert.Equal(t, []string{"#fff", "#000"}, payload.Gradient.Colors)
}

func TestTablePayloads(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  Payload
	}{
		{
			name:  "sequence default increment",
			input: `{"action":"sequence","target":"col-0","start":"5"}`,
			want:  Sequence{Target: Target{Shorthand: "col-0"}, Start: 5, Increment: 1},
		},
		{
			name:  "arithmetic symbol",
			input: `{"action":"arithmetic","target":["A1","A2"],"operation":"*","operand":"3"}`,
			want:  Arithmetic{Target: Target{IDs: []string{"A1", "A2"}, List: true}, Operation: "multiply", Operand: 3},
		},
		{
			name:  "merge",
			input: `{"action":"merge_cells","start_cell":"A1","end_cell":"B2"}`,
			want:  MergeCells{StartCell: "A1", EndCell: "B2"},
		},
		{
			name:  "import",
			input: `{"action":"import_data","value":[["a",1],["b",2]]}`,
			want:  ImportData{Rows: [][]interface{}{{"a", 1.0}, {"b", 2.0}}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := Table.Process(tc.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, cmd.Payload); diff != "" {
				t.Fatalf("payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConditionalFormatBetween(t *testing.T) {
	cmd, err := Table.Process(`{"action":"conditional_format","target":"all","condition":{"operator":"between","threshold":"10","max":20},"property":"fill","value":"#ff0"}`)
	require.NoError(t, err)

	payload := cmd.Payload.(ConditionalFormat)
	assert.Equal(t, "between", payload.Condition.Operator)
	assert.Equal(t, 10.0, payload.Condition.Threshold)
	require.NotNil(t, payload.Condition.Max)
	assert.Equal(t, 20.0, *payload.Condition.Max)
	assert.Equal(t, "all", payload.Target.Shorthand)
}

func TestChartAndDatabasePayloads(t *testing.T) {
	cmd, err := Chart.Process(`{"action":"add_layer","layer":"trendline","value":{"color":"#000"}}`)
	require.NoError(t, err)
	assert.Equal(t, AddLayer{Layer: "trendline", Value: map[string]interface{}{"color": "#000"}}, cmd.Payload)

	cmd, err = Database.Process(`{"action":"describe_table","target":"orders"}`)
	require.NoError(t, err)
	assert.Equal(t, DescribeTable{Table: "orders"}, cmd.Payload)

	cmd, err = Database.Process(`{"action":"connect","params":{"path":"sales.db"}}`)
	require.NoError(t, err)
	assert.Equal(t, Connect{Params: map[string]interface{}{"path": "sales.db"}}, cmd.Payload)
}
