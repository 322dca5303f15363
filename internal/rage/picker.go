package rage

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/kballard/go-shellquote"

	"github.com/VoxDroid/lintrunner/internal/store"
)

// runItem adapts store.Run for the list component.
type runItem struct {
	run store.Run
	now time.Time
}

func (i runItem) Title() string {
	glyph := lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e")).Render("✓")
	if !i.run.Succeeded() {
		glyph = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Render("✕")
	}
	return fmt.Sprintf("%s %s", glyph, humanize.RelTime(i.run.Timestamp, i.now, "ago", "from now"))
}

func (i runItem) Description() string { return shellquote.Join(i.run.Args...) }
func (i runItem) FilterValue() string { return shellquote.Join(i.run.Args...) }

// pickerModel is the Bubble Tea model behind PickRun.
type pickerModel struct {
	list     list.Model
	selected *store.Run
	done     bool
}

func newPickerModel(runs []store.Run, now time.Time) *pickerModel {
	items := make([]list.Item, 0, len(runs))
	for _, r := range runs {
		items = append(items, runItem{run: r, now: now})
	}
	l := list.New(items, list.NewDefaultDelegate(), 60, 16)
	l.Title = "Select a past invocation to report"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	return &pickerModel{list: l}
}

func (m *pickerModel) Init() tea.Cmd { return nil }

func (m *pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.done = true
			return m, tea.Quit
		case "enter":
			if it, ok := m.list.SelectedItem().(runItem); ok {
				run := it.run
				m.selected = &run
			}
			m.done = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *pickerModel) View() string {
	if m.done {
		return ""
	}
	return m.list.View()
}

// NewPicker returns a Picker that shows an interactive list on the
// terminal attached to in and out.
func NewPicker(in io.Reader, out io.Writer) Picker {
	return func(runs []store.Run) (*store.Run, error) {
		m := newPickerModel(runs, time.Now())
		p := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen())
		final, err := p.Run()
		if err != nil {
			return nil, fmt.Errorf("run picker: %w", err)
		}
		return final.(*pickerModel).selected, nil
	}
}
