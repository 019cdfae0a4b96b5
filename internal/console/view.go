package console

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/lexcodex/nlcommand/executor"
)

const maxResultRows = 20

var (
	colorPrimary = lipgloss.Color("39")
	colorSuccess = lipgloss.Color("42")
	colorInfo    = lipgloss.Color("79")
	colorError   = lipgloss.Color("204")
	colorDim     = lipgloss.Color("241")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	domainStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	inputStyle   = lipgloss.NewStyle().Bold(true)
	commandStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// View renders the header, transcript, status line, and prompt.
func (m Model) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Top, titleStyle.Render("nlcommand "), domainStyle.Render(string(m.schema.Domain)))
	status := ""
	if m.sending {
		status = m.spinner.View() + dimStyle.Render(" interpreting…")
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), status, m.input.View())
}

func renderResult(res *executor.Result) string {
	if len(res.Columns) == 0 {
		return infoStyle.Render(res.Message)
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
	for i, row := range res.Rows {
		if i == maxResultRows {
			break
		}
		cells := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				cells[j] = "NULL"
			} else {
				cells[j] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
	out := strings.TrimRight(b.String(), "\n")
	if extra := len(res.Rows) - maxResultRows; extra > 0 {
		out += "\n" + dimStyle.Render(fmt.Sprintf("… %d more rows", extra))
	}
	return out
}
