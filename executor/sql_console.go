package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/lexcodex/nlcommand/command"
)

var (
	// ErrNotConnected is returned for commands that need an open session.
	ErrNotConnected = errors.New("no database connected")
	// ErrReadOnly is returned for statements other than SELECT or WITH.
	ErrReadOnly = errors.New("only read queries are allowed")
)

// Result is the tabular outcome of a database command.
type Result struct {
	Columns []string        `json:"columns,omitempty"`
	Rows    [][]interface{} `json:"rows,omitempty"`
	Message string          `json:"message,omitempty"`
}

// SQLConsole executes database-domain commands against SQLite files opened
// read-only. It is safe for concurrent use.
type SQLConsole struct {
	// DefaultPath is opened by connect commands without a path parameter.
	DefaultPath string
	Logger      *zap.Logger

	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewSQLConsole returns a disconnected console.
func NewSQLConsole(defaultPath string, logger *zap.Logger) *SQLConsole {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLConsole{DefaultPath: defaultPath, Logger: logger}
}

// Connected reports whether a session is open.
func (c *SQLConsole) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db != nil
}

// Execute runs cmd, which must belong to the database domain.
func (c *SQLConsole) Execute(ctx context.Context, cmd *command.Command) (*Result, error) {
	if cmd == nil || cmd.Domain != command.DomainDatabase {
		return nil, fmt.Errorf("not a database command")
	}
	switch p := cmd.Payload.(type) {
	case command.Connect:
		path, _ := p.Params["path"].(string)
		return c.connect(ctx, path)
	case command.ListTables:
		return c.query(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	case command.DescribeTable:
		return c.query(ctx, `SELECT name, type, "notnull", pk FROM pragma_table_info(?)`, p.Table)
	case command.Query:
		if !isReadQuery(p.SQL) {
			return nil, ErrReadOnly
		}
		return c.query(ctx, p.SQL)
	case command.Disconnect:
		return c.disconnect()
	}
	return nil, fmt.Errorf("unsupported database action %q", cmd.Action)
}

// Close ends any open session.
func (c *SQLConsole) Close() error {
	_, err := c.disconnect()
	return err
}

func (c *SQLConsole) connect(ctx context.Context, path string) (*Result, error) {
	if path == "" {
		path = c.DefaultPath
	}
	if path == "" {
		return nil, errors.New("connect: no database path given")
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}
	c.mu.Lock()
	previous := c.db
	c.db, c.path = db, path
	c.mu.Unlock()
	if previous != nil {
		_ = previous.Close()
	}
	c.Logger.Info("database connected", zap.String("path", path))
	return &Result{Message: "connected to " + path}, nil
}

func (c *SQLConsole) disconnect() (*Result, error) {
	c.mu.Lock()
	db, path := c.db, c.path
	c.db, c.path = nil, ""
	c.mu.Unlock()
	if db == nil {
		return &Result{Message: "not connected"}, nil
	}
	if err := db.Close(); err != nil {
		return nil, err
	}
	c.Logger.Info("database disconnected", zap.String("path", path))
	return &Result{Message: "disconnected from " + path}, nil
}

func (c *SQLConsole) query(ctx context.Context, query string, args ...interface{}) (*Result, error) {
	c.mu.Lock()
	db := c.db
	c.mu.Unlock()
	if db == nil {
		return nil, ErrNotConnected
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func isReadQuery(sql string) bool {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
		return !strings.Contains(strings.TrimRight(strings.TrimSpace(sql), ";"), ";")
	}
	return false
}
