package executor

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/nlcommand/command"
)

func TestColumnLabel(t *testing.T) {
	assert.Equal(t, "A", ColumnLabel(0))
	assert.Equal(t, "Z", ColumnLabel(25))
	assert.Equal(t, "AA", ColumnLabel(26))
	assert.Equal(t, "AZ", ColumnLabel(51))
	assert.Equal(t, "BA", ColumnLabel(52))
}

func TestGridExpand(t *testing.T) {
	grid := Grid{Rows: 2, Cols: 3}
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"all", `{"action":"select","target":"all"}`, []string{"A1", "B1", "C1", "A2", "B2", "C2"}},
		{"row", `{"action":"select","target":"row-1"}`, []string{"A2", "B2", "C2"}},
		{"col", `{"action":"select","target":"col-2"}`, []string{"C1", "C2"}},
		{"joined shorthand", `{"action":"select","target":"row-0,col-0"}`, []string{"A1", "B1", "C1", "A2"}},
		{"ids", `{"action":"select","target":"B1, C2"}`, []string{"B1", "C2"}},
		{"mixed list", `{"action":"select","target":["col-1","A1","B2"]}`, []string{"B1", "B2", "A1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := command.Table.Process(tc.input)
			require.NoError(t, err)
			got, err := grid.Expand(cmd.Target)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGridExpandErrors(t *testing.T) {
	grid := Grid{Rows: 2, Cols: 2}
	_, err := grid.Expand(command.Target{Shorthand: "row-5"})
	assert.Error(t, err)
	_, err = grid.Expand(command.Target{Shorthand: "col-x"})
	assert.Error(t, err)
}

func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`
		CREATE TABLE orders (id INTEGER PRIMARY KEY, customer TEXT NOT NULL, total REAL);
		INSERT INTO orders (customer, total) VALUES ('ana', 10.5), ('ben', 20), ('cy', 7);
		CREATE TABLE customers (name TEXT);
	`)
	require.NoError(t, err)
	return path
}

func run(t *testing.T, console *SQLConsole, raw string) (*Result, error) {
	t.Helper()
	cmd, err := command.Database.Process(raw)
	require.NoError(t, err)
	return console.Execute(context.Background(), cmd)
}

func TestSQLConsoleSession(t *testing.T) {
	path := seedDatabase(t)
	console := NewSQLConsole(path, nil)
	t.Cleanup(func() { _ = console.Close() })

	_, err := run(t, console, `{"action":"list_tables"}`)
	assert.ErrorIs(t, err, ErrNotConnected)

	res, err := run(t, console, `{"action":"connect"}`)
	require.NoError(t, err)
	assert.Contains(t, res.Message, "sales.db")
	assert.True(t, console.Connected())

	res, err = run(t, console, `{"action":"list_tables"}`)
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{{"customers"}, {"orders"}}, res.Rows)

	res, err = run(t, console, `{"action":"describe_table","target":"orders"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "type", "notnull", "pk"}, res.Columns)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "customer", res.Rows[1][0])

	res, err = run(t, console, `{"action":"query","sql":"SELECT customer FROM orders ORDER BY total DESC"}`)
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{{"ben"}, {"ana"}, {"cy"}}, res.Rows)

	_, err = run(t, console, `{"action":"query","sql":"DELETE FROM orders"}`)
	assert.ErrorIs(t, err, ErrReadOnly)

	res, err = run(t, console, `{"action":"disconnect"}`)
	require.NoError(t, err)
	assert.Contains(t, res.Message, "disconnected")
	assert.False(t, console.Connected())
}

func TestSQLConsoleConnectParams(t *testing.T) {
	path := seedDatabase(t)
	console := NewSQLConsole("", nil)
	t.Cleanup(func() { _ = console.Close() })

	_, err := run(t, console, `{"action":"connect"}`)
	assert.Error(t, err)

	_, err = run(t, console, `{"action":"connect","params":{"path":"`+filepath.ToSlash(path)+`"}}`)
	require.NoError(t, err)
	assert.True(t, console.Connected())

	_, err = console.Execute(context.Background(), &command.Command{Domain: command.DomainTable})
	assert.Error(t, err)
}

func TestIsReadQuery(t *testing.T) {
	assert.True(t, isReadQuery("select 1 LIMIT 100"))
	assert.True(t, isReadQuery("WITH x AS (SELECT 1) SELECT * FROM x LIMIT 100"))
	assert.False(t, isReadQuery("SELECT 1; DROP TABLE orders LIMIT 100"))
	assert.False(t, isReadQuery("UPDATE orders SET total = 0"))
	assert.False(t, isReadQuery(""))
}
