package console

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lexcodex/nlcommand/command"
)

const helpText = `/domain [name]  show or switch the active domain
/prompt         show the system prompt for the active domain
/clear          clear the transcript
/quit           leave the console
Anything else is sent to the model.`

// Update handles terminal events and finished interpretations.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(10, msg.Width-2)
		m.viewport.Height = max(5, msg.Height-4)
		m.input.Width = max(10, msg.Width-4)
		m.refreshViewport()
		return m, nil
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		return m, cmd
	case resultMsg:
		m.sending = false
		m.appendResult(msg)
		return m, nil
	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return tea.Quit
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	case tea.KeyEnter:
		return m.submit()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.sending {
		return nil
	}
	m.input.Reset()
	if strings.HasPrefix(text, "/") {
		return m.runSlash(text)
	}
	m.sending = true
	m.appendLine(inputStyle.Render(fmt.Sprintf("[%s] %s", m.schema.Domain, text)))
	req := command.Request{UserInput: text, Context: m.opts.Context}
	return tea.Batch(m.spinner.Tick, interpretCmd(m.ctx, m.interpreter(), req, m.opts))
}

func (m *Model) runSlash(text string) tea.Cmd {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit", "/exit":
		return tea.Quit
	case "/help":
		m.appendLine(dimStyle.Render(helpText))
	case "/clear":
		m.lines = nil
		m.refreshViewport()
	case "/prompt":
		m.appendLine(dimStyle.Render(m.schema.SystemPrompt(m.opts.Context)))
	case "/domain":
		if len(fields) == 1 {
			var names []string
			for _, s := range command.Schemas() {
				names = append(names, string(s.Domain))
			}
			m.appendLine(infoStyle.Render(fmt.Sprintf("active: %s · available: %s", m.schema.Domain, strings.Join(names, ", "))))
			return nil
		}
		schema, ok := command.Lookup(fields[1])
		if !ok {
			m.appendLine(errorStyle.Render(fmt.Sprintf("unknown domain %q", fields[1])))
			return nil
		}
		m.schema = schema
		m.appendLine(infoStyle.Render("switched to " + string(schema.Domain)))
	default:
		m.appendLine(errorStyle.Render(fmt.Sprintf("unknown command %s (try /help)", fields[0])))
	}
	return nil
}

func (m *Model) appendResult(msg resultMsg) {
	if msg.err != nil {
		kind := string(command.KindOf(msg.err))
		if kind == "" {
			kind = "error"
		}
		m.appendLine(errorStyle.Render(fmt.Sprintf("%s: %v", kind, msg.err)))
		var decodeErr *command.DecodeError
		if errors.As(msg.err, &decodeErr) && decodeErr.Raw != "" {
			m.appendLine(dimStyle.Render("model said: " + decodeErr.Raw))
		}
		return
	}
	m.appendLine(commandStyle.Render(msg.command.String()) + " " + dimStyle.Render(msg.elapsed.Round(time.Millisecond).String()))
	if len(msg.cells) > 0 {
		m.appendLine(infoStyle.Render("cells: " + strings.Join(msg.cells, ", ")))
	}
	if msg.result != nil {
		m.appendLine(renderResult(msg.result))
	}
	if msg.execErr != nil {
		m.appendLine(errorStyle.Render(msg.execErr.Error()))
	}
}
