package command

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultQueryLimit bounds every query the database console receives.
const DefaultQueryLimit = 100

var (
	databaseActions = []string{ActionConnect, ActionListTables, ActionDescribeTable, ActionQuery, ActionDisconnect}

	limitToken = regexp.MustCompile(`(?i)\blimit\b`)
)

// Database covers the query console. Targets name tables.
var Database = register(&Schema{
	Domain:      DomainDatabase,
	Description: "The database console inspects and queries the connected SQL database.",
	Actions:     databaseActions,
	Required: map[string][]string{
		ActionDescribeTable: {"target"},
		ActionQuery:         {"sql"},
	},
	Fields: map[string]FieldKind{
		"sql":    KindString,
		"params": KindObject,
	},
	SplitTargets: true,
	Rules: map[string]Rule{
		ActionDescribeTable: singleTableRule,
	},
	Steps:   []Step{singleTableStep, limitStep},
	Promote: promoteDatabase,
	Guidance: []string{
		"Only write read queries (SELECT). Include a LIMIT when the user asks for a specific number of rows.",
		"Use table names exactly as listed in the context. describe_table takes exactly one table.",
		"connect takes an optional params object with connection settings such as {\"path\": \"sales.db\"}.",
	},
	Examples: map[string][]Example{
		ActionConnect:       {{Request: "connect to the sales database", Command: `{"action":"connect","params":{"path":"sales.db"}}`}},
		ActionListTables:    {{Request: "what tables are there?", Command: `{"action":"list_tables"}`}},
		ActionDescribeTable: {{Request: "show me the columns of orders", Command: `{"action":"describe_table","target":"orders"}`}},
		ActionQuery: {
			{Request: "top 10 customers by spend", Command: `{"action":"query","sql":"SELECT customer_id, SUM(total) AS spend FROM orders GROUP BY customer_id ORDER BY spend DESC LIMIT 10"}`},
			{Request: "show all orders", Command: `{"action":"query","sql":"SELECT * FROM orders LIMIT 100"}`},
		},
		ActionDisconnect: {{Request: "close the connection", Command: `{"action":"disconnect"}`}},
	},
	ContextKeys: []ContextKey{
		{Key: "connected", Description: "whether a database session is open"},
		{Key: "tables", Description: "known table names"},
	},
})

func singleTableRule(obj Raw) error {
	if _, ok := obj["target"].(string); !ok {
		return NewInvalidTypeError("target", "single table name", obj["target"])
	}
	return nil
}

// singleTableStep rejects a describe_table target that splitting turned into
// a list.
func singleTableStep(action string, obj Raw) error {
	if action != ActionDescribeTable {
		return nil
	}
	return singleTableRule(obj)
}

// HasLimit reports whether sql already contains a LIMIT token outside
// comments.
func HasLimit(sql string) bool {
	return limitToken.MatchString(blankComments(sql))
}

// limitStep appends a LIMIT of DefaultQueryLimit to queries that have none.
// Trailing comments, semicolons and whitespace are dropped first so the clause
// stays inside the statement.
func limitStep(action string, obj Raw) error {
	if action != ActionQuery {
		return nil
	}
	sql := stringField(obj, "sql")
	code := blankComments(sql)
	if limitToken.MatchString(code) {
		return nil
	}
	end := len(strings.TrimRight(code, "; \t\r\n"))
	obj["sql"] = sql[:end] + " LIMIT " + strconv.Itoa(DefaultQueryLimit)
	return nil
}

// blankComments returns sql with every line and block comment replaced by
// spaces. Byte offsets are preserved. Quoted strings and identifiers are left
// alone, and an unterminated block comment runs to the end.
func blankComments(sql string) string {
	code := []byte(sql)
	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				end = len(sql) - i
			}
			blank(code[i : i+end])
			i += end - 1
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				blank(code[i:])
				return string(code)
			}
			blank(code[i : i+end+4])
			i += end + 3
		}
	}
	return string(code)
}

func blank(b []byte) {
	for i := range b {
		b[i] = ' '
	}
}

func promoteDatabase(c *Command) (Payload, error) {
	switch c.Action {
	case ActionConnect:
		params, _ := cloneValue(objectField(c.fields, "params")).(map[string]interface{})
		return Connect{Params: params}, nil
	case ActionListTables:
		return ListTables{}, nil
	case ActionDescribeTable:
		table, _ := c.Target.Single()
		return DescribeTable{Table: table}, nil
	case ActionQuery:
		return Query{SQL: stringField(c.fields, "sql")}, nil
	case ActionDisconnect:
		return Disconnect{}, nil
	}
	return nil, &InvalidActionError{Action: c.Action, Valid: databaseActions}
}
