// Package tui is the interactive view over the synchronized state.
//
// The view never mutates anything itself: every key press that changes
// data turns into a server round trip run as a tea.Cmd, and the list
// is rebuilt from the controller's confirmed state when the result
// message arrives. While a round trip is in flight further mutating
// keys are ignored, so at most one mutation per item is outstanding.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todoq/internal/model"
	"todoq/internal/session"
	"todoq/internal/ui"
)

// listItem adapts a confirmed Todo to bubbles/list.Item.
type listItem struct {
	ID    int64
	Title string
	Done  bool
}

func (i listItem) FilterValue() string { return i.Title }

// itemDelegate renders one todo per line.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)

	box := ui.MutedStyle.Render(ui.BoxUnchecked)
	text := it.Title
	if it.Done {
		box = ui.SuccessStyle.Render(ui.BoxChecked)
		text = ui.DoneStyle.Render(text)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = ui.SelectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

// opDoneMsg reports a finished server round trip.
type opDoneMsg struct {
	err error
}

// Model is the Bubble Tea model over a session controller.
type Model struct {
	ctrl *session.Controller
	list list.Model

	busy   bool
	status string // transient error line, cleared on next confirmed op

	adding bool
	ti     textinput.Model

	width, height int
}

// New builds the interactive model. The controller must already be
// authenticated and initialized.
func New(ctrl *session.Controller) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = ui.TitleStyle
	l.Styles.HelpStyle = ui.HelpStyle
	l.Styles.PaginationStyle = ui.HelpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")

	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	toggleBind := key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	rmBind := key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	refreshBind := key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
	extra := func() []key.Binding {
		return []key.Binding{addBind, toggleBind, rmBind, refreshBind}
	}
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "New todo title..."
	ti.CharLimit = 200

	m := Model{ctrl: ctrl, list: l, ti: ti}
	m.rebuild()
	return m
}

// Run starts the program on the alt screen.
func Run(ctx context.Context, ctrl *session.Controller) error {
	p := tea.NewProgram(New(ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// rebuild re-derives the list and title from confirmed state only.
func (m *Model) rebuild() {
	todos := m.ctrl.State().Todos()
	items := make([]list.Item, 0, len(todos))
	for _, t := range todos {
		items = append(items, listItem{ID: t.ID, Title: t.Title, Done: t.Done})
	}
	m.list.SetItems(items)
	m.list.Title = m.titleLine(todos)
}

func (m *Model) titleLine(todos []model.Todo) string {
	title := ui.TitleStyle.Render("Todos")
	if u := m.ctrl.Username(); u != "" {
		title += ui.MutedStyle.Render(" @" + u)
	}
	stats, ok := m.ctrl.State().Stats()
	if !ok {
		return title
	}
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		title,
		ui.SuccessStyle.Render("✔"), stats.Done,
		ui.PendingStyle.Render("•"), stats.NotDone,
		ui.AccentStyle.Render("Total"), stats.Total,
	)
}

func (m Model) Init() tea.Cmd { return nil }

// op wraps a controller round trip in a command.
func (m *Model) op(f func(ctx context.Context) error) tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		return opDoneMsg{err: f(context.Background())}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case opDoneMsg:
		m.busy = false
		if msg.err != nil {
			// Local state is untouched on failure; keep rendering the
			// last confirmed values and let the user retry.
			m.status = "request failed, see log (retry or press r)"
			if !m.ctrl.Authenticated() {
				m.status = "credential rejected, run: todoq register <username>"
			}
		} else {
			m.status = ""
		}
		m.rebuild()
		return m, nil
	}

	if m.adding {
		return m.updateAdding(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.busy {
				return m, nil
			}
			if it, ok := m.selected(); ok {
				id := it.ID
				cmd := m.op(func(ctx context.Context) error {
					_, err := m.ctrl.Toggle(ctx, id)
					return err
				})
				return m, cmd
			}
			return m, nil
		case "d":
			if m.busy {
				return m, nil
			}
			if it, ok := m.selected(); ok {
				id := it.ID
				cmd := m.op(func(ctx context.Context) error {
					return m.ctrl.Remove(ctx, id)
				})
				return m, cmd
			}
			return m, nil
		case "a":
			if m.busy {
				return m, nil
			}
			m.adding = true
			m.ti.SetValue("")
			m.ti.Focus()
			return m, nil
		case "r":
			if m.busy {
				return m, nil
			}
			cmd := m.op(m.ctrl.Refresh)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch x := msg.(type) {
	case tea.KeyMsg:
		switch x.String() {
		case "enter":
			title := strings.TrimSpace(m.ti.Value())
			if title == "" {
				m.status = "title cannot be empty"
				return m, nil
			}
			m.adding = false
			m.ti.Blur()
			m.ti.SetValue("")
			cmd := m.op(func(ctx context.Context) error {
				_, err := m.ctrl.Create(ctx, title)
				return err
			})
			return m, cmd
		case "esc":
			m.adding = false
			m.ti.Blur()
			m.ti.SetValue("")
			m.status = ""
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m Model) selected() (listItem, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it, ok
}

func (m Model) View() string {
	w, h := m.width, m.height
	if w == 0 {
		w, h = 80, 24
	}
	listHeight := h - 4
	if m.adding || m.status != "" {
		listHeight = h - 6
	}
	m.list.SetSize(w-4, listHeight)

	content := m.list.View()
	if m.adding {
		inputLine := "Add new todo\n" + m.ti.View()
		content += "\n" + ui.BorderStyle.Render(inputLine)
	}
	if m.busy {
		content += "\n" + ui.MutedStyle.Render("syncing...")
	} else if m.status != "" {
		content += "\n" + ui.ErrorStyle.Render(m.status)
	}
	return ui.BorderStyle.Render(content)
}
