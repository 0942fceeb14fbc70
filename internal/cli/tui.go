package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/gafetes/pkg/manifest"
)

var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	tableDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Manifest Table
// =============================================================================

// manifestTable renders m as one row per sheet.
func manifestTable(m *manifest.Manifest) string {
	rows := make([][]string, 0, m.Len())
	for i, p := range m.Pairs {
		companion := "—"
		if p.HasCompanion() {
			companion = filepath.Base(p.CompanionPath)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", p.Key),
			filepath.Base(p.DirectorPath),
			companion,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Sheet", "Key", "Director", "Companion").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			switch col {
			case 0:
				return cell.Foreground(colorDim).Align(lipgloss.Right)
			case 1:
				return cell.Foreground(colorCyan).Align(lipgloss.Right)
			case 3:
				if row >= 0 && row < m.Len() && !m.Pairs[row].HasCompanion() {
					return cell.Foreground(colorDim)
				}
			}
			return cell.Foreground(colorWhite)
		})
	return t.Render()
}

// =============================================================================
// ComposeModel - Sheet progress while composing
// =============================================================================

type sheetMsg struct{ done, total int }

type finishedMsg struct{}

// ComposeModel is the bubbletea model for the composition progress bar.
type ComposeModel struct {
	Title    string
	Done     int
	Total    int
	Width    int
	Start    time.Time
	Finished bool
}

// NewComposeModel creates a progress model for total sheets.
func NewComposeModel(title string, total int) ComposeModel {
	return ComposeModel{Title: title, Total: total, Width: 40, Start: time.Now()}
}

func (m ComposeModel) Init() tea.Cmd {
	return nil
}

func (m ComposeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sheetMsg:
		m.Done, m.Total = msg.done, msg.total
	case finishedMsg:
		m.Finished = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.Width = msg.Width - 30
		if m.Width < 10 {
			m.Width = 10
		}
		if m.Width > 60 {
			m.Width = 60
		}
	}
	return m, nil
}

func (m ComposeModel) View() string {
	if m.Finished {
		return ""
	}
	filled := 0
	if m.Total > 0 {
		filled = m.Width * m.Done / m.Total
	}
	bar := barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", m.Width-filled))
	counts := tableDimStyle.Render(fmt.Sprintf("%d/%d sheets  %s",
		m.Done, m.Total, time.Since(m.Start).Round(100*time.Millisecond)))
	return StyleTitle.Render(m.Title) + "\n" + bar + " " + counts + "\n"
}

// withSheetProgress runs fn, showing a progress bar on stderr when it is a
// terminal. fn receives the callback to report each finished sheet.
func withSheetProgress(ctx context.Context, title string, total int, fn func(onSheet func(done, total int)) error) error {
	if !stderrIsTerminal() || total == 0 {
		logger := loggerFromContext(ctx)
		return fn(func(done, total int) {
			logger.Debug("sheet ready", "done", done, "total", total)
		})
	}

	p := tea.NewProgram(NewComposeModel(title, total),
		tea.WithOutput(os.Stderr),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		_, _ = p.Run()
	}()

	err := fn(func(done, total int) { p.Send(sheetMsg{done: done, total: total}) })
	p.Send(finishedMsg{})
	<-exited
	return err
}
