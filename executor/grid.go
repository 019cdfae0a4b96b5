// Package executor holds reference consumers of validated commands: shorthand
// target expansion for the table surface and a SQLite console for the
// database domain.
package executor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lexcodex/nlcommand/command"
)

// Grid describes the table the shorthand targets address. Cells are named
// spreadsheet style: column letters followed by a 1-based row number.
type Grid struct {
	Rows int
	Cols int
}

// CellID returns the identifier of the zero-based (row, col) cell.
func (g Grid) CellID(row, col int) string {
	return ColumnLabel(col) + strconv.Itoa(row+1)
}

// ColumnLabel converts a zero-based column index to A, B, ..., Z, AA, AB.
func ColumnLabel(col int) string {
	label := ""
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		label = string(rune('A'+(n-1)%26)) + label
	}
	return label
}

// Expand resolves a target to concrete cell identifiers in row-major order.
// Comma-joined shorthand strings kept intact by normalization are split here;
// plain identifiers pass through. Duplicates are dropped.
func (g Grid) Expand(target command.Target) ([]string, error) {
	var out []string
	seen := map[string]struct{}{}
	add := func(ids ...string) {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	if target.Shorthand != "" {
		for _, part := range strings.Split(target.Shorthand, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			ids, err := g.expandToken(part)
			if err != nil {
				return nil, err
			}
			add(ids...)
		}
	}
	for _, id := range target.IDs {
		ids, err := g.expandToken(id)
		if err != nil {
			return nil, err
		}
		add(ids...)
	}
	return out, nil
}

func (g Grid) expandToken(token string) ([]string, error) {
	switch {
	case token == command.ShorthandAll:
		ids := make([]string, 0, g.Rows*g.Cols)
		for r := 0; r < g.Rows; r++ {
			for c := 0; c < g.Cols; c++ {
				ids = append(ids, g.CellID(r, c))
			}
		}
		return ids, nil
	case strings.HasPrefix(token, command.ShorthandRowPrefix):
		r, err := g.index(token, command.ShorthandRowPrefix, g.Rows)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, g.Cols)
		for c := 0; c < g.Cols; c++ {
			ids = append(ids, g.CellID(r, c))
		}
		return ids, nil
	case strings.HasPrefix(token, command.ShorthandColPrefix):
		c, err := g.index(token, command.ShorthandColPrefix, g.Cols)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, g.Rows)
		for r := 0; r < g.Rows; r++ {
			ids = append(ids, g.CellID(r, c))
		}
		return ids, nil
	}
	return []string{token}, nil
}

func (g Grid) index(token, prefix string, size int) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(token, prefix))
	if err != nil {
		return 0, fmt.Errorf("malformed shorthand %q", token)
	}
	if n < 0 || n >= size {
		return 0, fmt.Errorf("shorthand %q out of range (0..%d)", token, size-1)
	}
	return n, nil
}
