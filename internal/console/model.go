// Package console is an interactive terminal for trying requests against the
// interpreters. Accepted database commands can be run against a read-only
// SQLite session, and table targets can be previewed as cell ids.
package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/lexcodex/nlcommand/command"
	"github.com/lexcodex/nlcommand/executor"
	"github.com/lexcodex/nlcommand/framework"
)

// Options configure the console.
type Options struct {
	Invoker   command.Invoker
	Telemetry framework.Telemetry
	Domain    command.Domain
	Context   command.DomainContext
	// SQL, when set, runs accepted database commands.
	SQL *executor.SQLConsole
	// Grid, when non-empty, expands accepted table targets into cell ids.
	Grid executor.Grid
}

// Run launches the Bubble Tea program and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	m, err := NewModel(ctx, opts)
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// Model is the Bubble Tea model behind the console.
type Model struct {
	ctx          context.Context
	opts         Options
	schema       *command.Schema
	interpreters map[command.Domain]*command.Interpreter

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	lines    []string
	sending  bool

	width  int
	height int
}

// resultMsg carries one finished interpretation back to Update.
type resultMsg struct {
	domain  command.Domain
	input   string
	command *command.Command
	err     error
	elapsed time.Duration

	result  *executor.Result
	cells   []string
	execErr error
}

// NewModel builds the initial model for opts.Domain, defaulting to diagram.
func NewModel(ctx context.Context, opts Options) (Model, error) {
	if opts.Invoker == nil {
		return Model{}, fmt.Errorf("console requires a model invoker")
	}
	if opts.Domain == "" {
		opts.Domain = command.DomainDiagram
	}
	schema, ok := command.Lookup(string(opts.Domain))
	if !ok {
		return Model{}, fmt.Errorf("unknown domain %q", opts.Domain)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	input := textinput.New()
	input.Placeholder = "Describe a change, or /help"
	input.CharLimit = 2000
	input.Prompt = "❯ "
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:          ctx,
		opts:         opts,
		schema:       schema,
		interpreters: map[command.Domain]*command.Interpreter{},
		input:        input,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
	}
	m.appendLine(dimStyle.Render(fmt.Sprintf("domain %s · /help lists commands", schema.Domain)))
	return m, nil
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) interpreter() *command.Interpreter {
	if interp, ok := m.interpreters[m.schema.Domain]; ok {
		return interp
	}
	interp := command.NewInterpreter(m.schema, m.opts.Invoker, m.opts.Telemetry)
	m.interpreters[m.schema.Domain] = interp
	return interp
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// interpretCmd runs one request off the UI goroutine and, when the command
// is accepted, previews or executes it.
func interpretCmd(ctx context.Context, interp *command.Interpreter, req command.Request, opts Options) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx := framework.WithRequestContext(ctx, framework.RequestContext{
			ID:     uuid.NewString(),
			Domain: string(interp.Schema.Domain),
			Input:  req.UserInput,
		})
		cmd, err := interp.Interpret(ctx, req)
		msg := resultMsg{domain: interp.Schema.Domain, input: req.UserInput, command: cmd, err: err}
		if err == nil {
			switch {
			case cmd.Domain == command.DomainDatabase && opts.SQL != nil:
				msg.result, msg.execErr = opts.SQL.Execute(ctx, cmd)
			case cmd.Domain == command.DomainTable && opts.Grid.Rows > 0 && opts.Grid.Cols > 0 && !cmd.Target.IsZero():
				msg.cells, msg.execErr = opts.Grid.Expand(cmd.Target)
			}
		}
		msg.elapsed = time.Since(start)
		return msg
	}
}
