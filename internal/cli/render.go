package cli

import (
	"fmt"

	"todoq/internal/model"
	"todoq/internal/session"
	"todoq/internal/ui"
)

// listLines renders the confirmed collection as panel lines: header
// with server stats, progress bar, then one line per todo. group
// splits the listing into pending/done sections; the collection itself
// keeps server order either way.
func listLines(ctrl *session.Controller, group bool) []string {
	t := ui.Current()
	todos := ctrl.State().Todos()

	header := ui.C(t.Title, "Todos")
	if u := ctrl.Username(); u != "" {
		header += ui.C(t.Muted, " @"+u)
	}
	var lines []string
	if stats, ok := ctrl.State().Stats(); ok {
		header = fmt.Sprintf("%s  %s %d  %s %d  %s %d",
			header,
			ui.C(t.Success, t.SymDone), stats.Done,
			ui.C(t.Pending, t.SymUnchecked), stats.NotDone,
			ui.C(t.Accent, "Total"), stats.Total,
		)
		lines = append(lines, header)
		lines = append(lines, ui.C(t.Muted, ui.ProgressBar(stats.Done, stats.Total, 28)))
	} else {
		lines = append(lines, header)
	}
	lines = append(lines, "")
	if group {
		lines = append(lines, groupLines(todos)...)
	} else {
		lines = append(lines, todoLines(todos)...)
	}
	return lines
}

// groupLines renders pending todos first, then done ones, each section
// in server order.
func groupLines(todos []model.Todo) []string {
	t := ui.Current()
	var pend, done []model.Todo
	for _, td := range todos {
		if td.Done {
			done = append(done, td)
		} else {
			pend = append(pend, td)
		}
	}
	var lines []string
	lines = append(lines, ui.C(t.Accent, "Pending"))
	if len(pend) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, todoLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Accent, "Done"))
	if len(done) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, todoLines(done)...)
	}
	return lines
}

func todoLines(todos []model.Todo) []string {
	t := ui.Current()
	if len(todos) == 0 {
		return []string{ui.C(t.Muted, "no todos")}
	}
	out := make([]string, 0, len(todos))
	for _, td := range todos {
		box := t.BoxUnchecked
		color := t.Muted
		if td.Done {
			box, color = t.BoxChecked, t.Success
		}
		title := td.Title
		if r := []rune(title); len(r) > 80 {
			title = string(r[:77]) + "..."
		}
		out = append(out, fmt.Sprintf("%s %s %s",
			ui.C("\033[2m", fmt.Sprintf("%3d.", td.ID)), ui.C(color, box), title))
	}
	return out
}
