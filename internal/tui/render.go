package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/artview/internal/catalog"
)

// styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	checkedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	modalStyle    = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("212")).Padding(1, 3)
	activeBorder  = lipgloss.Color("212")
	passiveBorder = lipgloss.Color("238")
)

type column struct {
	title string
	width int
	value func(catalog.Record) string
}

var columns = []column{
	{"Title", 34, func(r catalog.Record) string { return r.Title }},
	{"Place of Origin", 16, func(r catalog.Record) string { return r.PlaceOfOrigin }},
	{"Artist", 28, func(r catalog.Record) string { return r.ArtistDisplay }},
	{"Inscriptions", 20, func(r catalog.Record) string { return r.Inscriptions }},
	{"Start", 6, func(r catalog.Record) string { return year(r.DateStart) }},
	{"End", 6, func(r catalog.Record) string { return year(r.DateEnd) }},
}

func (a *App) View() string {
	body := a.renderTable() + "\n\n" + a.renderPanel()
	if a.modal != modalNone {
		body = overlayCenter(body, modalStyle.Render(a.renderModal()), a.width)
	}
	body += "\n" + a.renderStatus()
	body += "\n" + a.help.View(a.keys)
	return body
}

func (a *App) renderTable() string {
	title := titleStyle.Render("Artworks")
	if a.pages.TotalCount() > 0 {
		title += statusStyle.Render(fmt.Sprintf("  %d records", a.pages.TotalCount()))
	}
	if a.pages.Loading() {
		title += "  " + a.spinner.View() + statusStyle.Render(fmt.Sprintf(" loading page %d", a.requested+1))
	}

	rows := a.pages.CurrentRecords()
	checked := make(map[int64]bool, len(rows))
	for _, r := range a.checkedRows() {
		checked[r.ID] = true
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(headerStyle.Render(a.headerLine(len(rows) > 0 && len(checked) == len(rows))) + "\n")
	if len(rows) == 0 {
		if a.pages.Loading() {
			b.WriteString(statusStyle.Render("  fetching...") + "\n")
		} else {
			b.WriteString(statusStyle.Render("  no records on this page") + "\n")
		}
	}
	for i, r := range rows {
		marker := " "
		if a.focus == focusTable && i == a.rowCursor {
			marker = cursorStyle.Render("▶")
		}
		box := "[ ]"
		if checked[r.ID] {
			box = checkedStyle.Render("[x]")
		}
		cells := make([]string, 0, len(columns))
		for _, c := range columns {
			cells = append(cells, padRight(clip(oneLine(c.value(r)), c.width), c.width))
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", marker, box, strings.Join(cells, " ")))
	}
	b.WriteString(a.paginator.View())
	return b.String()
}

func (a *App) headerLine(allChecked bool) string {
	box := "[ ]"
	if allChecked {
		box = "[x]"
	}
	cells := make([]string, 0, len(columns))
	for _, c := range columns {
		cells = append(cells, padRight(c.title, c.width))
	}
	return "  " + box + " " + strings.Join(cells, " ")
}

func (a *App) renderPanel() string {
	all := a.selected.All()
	items := a.panelItems()
	out := titleStyle.Render("Selected Artworks") + statusStyle.Render(fmt.Sprintf("  %d", len(all)))
	if a.filtering || a.filter.Value() != "" {
		out += "\n" + a.filter.View()
	}
	switch {
	case len(all) == 0:
		out += "\nNo artworks selected"
	case len(items) == 0:
		out += "\nNo selected artworks match the filter"
	default:
		for i, r := range items {
			marker := " "
			if a.focus == focusPanel && i == a.panelCursor {
				marker = cursorStyle.Render("▶")
			}
			out += fmt.Sprintf("\n%s %s - %s", marker, clip(oneLine(r.Title), 48), clip(oneLine(r.ArtistDisplay), 40))
		}
	}
	border := passiveBorder
	if a.focus == focusPanel {
		border = activeBorder
	}
	return panelStyle.BorderForeground(border).Render(out)
}

func (a *App) renderModal() string {
	switch a.modal {
	case modalConfirmClearCache:
		return titleStyle.Render("Clear page cache?") + "\nCached pages will be fetched again.\n[y] Yes  [n] No"
	default:
		return ""
	}
}

func (a *App) renderStatus() string {
	mode := "merge"
	if a.cfg.UI.UncheckRemoves {
		mode = "sync"
	}
	line := statusStyle.Render(fmt.Sprintf("%d selected  mode: %s", a.selected.Len(), mode))
	if a.status == "" {
		return line
	}
	if strings.HasPrefix(a.status, "error: ") {
		return line + "  " + errorStyle.Render(a.status)
	}
	return line + "  " + statusStyle.Render(a.status)
}

func year(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// clip shortens s to n display cells.
func clip(s string, n int) string {
	return ansi.Truncate(s, n, "…")
}
