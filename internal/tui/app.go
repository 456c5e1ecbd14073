package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jask/artview/internal/catalog"
	"github.com/jask/artview/internal/config"
	"github.com/jask/artview/internal/export"
	"github.com/jask/artview/internal/pagecache"
	"github.com/jask/artview/internal/selection"
	"github.com/jask/artview/internal/service"
)

// App is the catalog browser: a paged table of artworks with a checkbox per
// row and a panel listing everything selected so far across pages.
type App struct {
	ctx      context.Context
	cfg      config.Config
	log      *zap.Logger
	services Services

	pages    *pagecache.Cache
	selected *selection.Accumulator

	// zero-based index of the page last asked for
	requested int

	focus       focusArea
	rowCursor   int
	panelCursor int
	modal       modalState
	status      string
	width       int

	keys      keyMap
	help      help.Model
	paginator paginator.Model
	spinner   spinner.Model
	filter    textinput.Model
	filtering bool

	now func() time.Time
}

type Services struct {
	Maintenance *service.MaintenanceService
	Cache       *service.CachedProvider
}

type focusArea string

const (
	focusTable focusArea = "table"
	focusPanel focusArea = "panel"
)

type modalState string

const (
	modalNone              modalState = ""
	modalConfirmClearCache modalState = "confirmClearCache"
)

func New(ctx context.Context, cfg config.Config, provider catalog.Provider, services Services, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	rows := cfg.UI.RowsPerPage
	if rows <= 0 {
		rows = 12
	}
	cfg.UI.RowsPerPage = rows

	p := paginator.New(paginator.WithPerPage(rows))
	p.Type = paginator.Arabic
	p.ArabicFormat = "page %d of %d"

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle))

	fi := textinput.New()
	fi.Prompt = "filter: "
	fi.Placeholder = "title or artist"
	fi.CharLimit = 64

	return &App{
		ctx:       ctx,
		cfg:       cfg,
		log:       log,
		services:  services,
		pages:     pagecache.New(provider, rows, log),
		selected:  selection.New(),
		focus:     focusTable,
		keys:      defaultKeys(),
		help:      help.New(),
		paginator: p,
		spinner:   sp,
		filter:    fi,
		now:       time.Now,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.requestPage(0), a.spinner.Tick, a.purgeCmd())
}

// requestPage starts loading the page at zero-based index. Only the newest
// request's response is ever applied.
func (a *App) requestPage(index int) tea.Cmd {
	if index < 0 {
		index = 0
	}
	a.requested = index
	req := a.pages.Begin(a.ctx, index+1)
	a.log.Debug("page requested", zap.Int("page", req.PageNumber), zap.Uint64("seq", req.Seq))
	pages := a.pages
	return func() tea.Msg {
		return pageLoadedMsg(pages.Fetch(req))
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
		a.help.Width = m.Width
	case tea.KeyMsg:
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		if a.filtering {
			return a.handleFilterKey(m)
		}
		return a.handleKey(m)
	case pageLoadedMsg:
		a.applyPage(pagecache.Result(m))
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.status = "error: " + m.Error()
	case exportDoneMsg:
		a.status = fmt.Sprintf("exported %d artworks to %s", m.Count, m.Path)
	}
	return a, nil
}

func (a *App) applyPage(res pagecache.Result) {
	if !a.pages.Apply(res) {
		return
	}
	if res.Err != nil {
		// stay on the page that is actually shown
		a.requested = a.paginator.Page
		if !errors.Is(res.Err, context.Canceled) {
			a.status = "error: " + res.Err.Error()
		}
		return
	}
	a.paginator.SetTotalPages(a.pages.TotalCount())
	a.paginator.Page = a.pages.PageNumber() - 1
	a.requested = a.paginator.Page
	if n := len(a.pages.CurrentRecords()); a.rowCursor >= n {
		a.rowCursor = max(n-1, 0)
	}
	if strings.HasPrefix(a.status, "error: ") {
		a.status = ""
	}
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(m, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	case key.Matches(m, a.keys.Focus):
		if a.focus == focusTable {
			a.focus = focusPanel
		} else {
			a.focus = focusTable
		}
	case key.Matches(m, a.keys.Up):
		a.moveCursor(-1)
	case key.Matches(m, a.keys.Down):
		a.moveCursor(1)
	case key.Matches(m, a.keys.NextPage):
		if last := a.lastPageIndex(); last >= 0 && a.requested >= last {
			return a, nil
		}
		return a, a.requestPage(a.requested + 1)
	case key.Matches(m, a.keys.PrevPage):
		if a.requested == 0 {
			return a, nil
		}
		return a, a.requestPage(a.requested - 1)
	case key.Matches(m, a.keys.FirstPage):
		return a, a.requestPage(0)
	case key.Matches(m, a.keys.LastPage):
		if last := a.lastPageIndex(); last >= 0 {
			return a, a.requestPage(last)
		}
	case key.Matches(m, a.keys.Refresh):
		return a, a.requestPage(a.requested)
	case key.Matches(m, a.keys.Toggle):
		if a.focus == focusTable {
			a.toggleRow()
		}
	case key.Matches(m, a.keys.ToggleAll):
		if a.focus == focusTable {
			a.togglePage()
		}
	case key.Matches(m, a.keys.Remove):
		if a.focus == focusPanel {
			a.removeAtCursor()
		}
	case key.Matches(m, a.keys.Filter):
		a.focus = focusPanel
		a.filtering = true
		a.panelCursor = 0
		return a, a.filter.Focus()
	case key.Matches(m, a.keys.Export):
		return a, a.exportCmd()
	case key.Matches(m, a.keys.UncheckMode):
		a.cfg.UI.UncheckRemoves = !a.cfg.UI.UncheckRemoves
		if a.cfg.UI.UncheckRemoves {
			a.status = "unchecking a row now deselects it"
		} else {
			a.status = "unchecking a row keeps it selected; remove from the panel"
		}
	case key.Matches(m, a.keys.SavePrefs):
		return a, a.savePrefsCmd()
	case key.Matches(m, a.keys.ClearCache):
		a.modal = modalConfirmClearCache
	}
	return a, nil
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.modal {
	case modalConfirmClearCache:
		switch m.String() {
		case "y", "Y":
			a.modal = modalNone
			return a, a.clearCacheCmd()
		case "n", "N", "esc":
			a.modal = modalNone
		}
	}
	return a, nil
}

func (a *App) handleFilterKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.Type {
	case tea.KeyEsc:
		a.filtering = false
		a.filter.Reset()
		a.filter.Blur()
		a.panelCursor = 0
		return a, nil
	case tea.KeyEnter:
		a.filtering = false
		a.filter.Blur()
		return a, nil
	}
	var cmd tea.Cmd
	a.filter, cmd = a.filter.Update(m)
	a.panelCursor = 0
	return a, cmd
}

func (a *App) moveCursor(delta int) {
	if a.focus == focusPanel {
		a.panelCursor = clamp(a.panelCursor+delta, len(a.panelItems()))
		return
	}
	a.rowCursor = clamp(a.rowCursor+delta, len(a.pages.CurrentRecords()))
}

func clamp(v, n int) int {
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

func (a *App) lastPageIndex() int {
	return a.pages.PageCount(a.cfg.UI.RowsPerPage) - 1
}

// toggleRow flips the row under the cursor and reports the resulting checked
// rows of the page as a selection change.
func (a *App) toggleRow() {
	rows := a.pages.CurrentRecords()
	if len(rows) == 0 {
		return
	}
	row := rows[a.rowCursor]
	checked := a.selected.VisibleSelection(rows)
	if a.selected.Contains(row.ID) {
		next := make([]catalog.Record, 0, len(checked))
		for _, r := range checked {
			if r.ID != row.ID {
				next = append(next, r)
			}
		}
		a.selectionChanged(rows, next)
		if a.selected.Contains(row.ID) {
			a.status = "still selected; remove it from the panel (tab) or press u"
		}
		return
	}
	next := make([]catalog.Record, 0, len(checked)+1)
	for _, r := range rows {
		if r.ID == row.ID || a.selected.Contains(r.ID) {
			next = append(next, r)
		}
	}
	a.selectionChanged(rows, next)
}

// togglePage checks every row on the page, or unchecks them all when they
// are already checked.
func (a *App) togglePage() {
	rows := a.pages.CurrentRecords()
	if len(rows) == 0 {
		return
	}
	if len(a.selected.VisibleSelection(rows)) == len(rows) {
		a.selectionChanged(rows, nil)
		return
	}
	a.selectionChanged(rows, rows)
}

// selectionChanged receives the full set of checked rows among visible.
func (a *App) selectionChanged(visible, checked []catalog.Record) {
	if a.cfg.UI.UncheckRemoves {
		a.selected.Sync(visible, checked)
	} else {
		a.selected.Merge(checked)
	}
	a.status = fmt.Sprintf("%d selected", a.selected.Len())
}

func (a *App) removeAtCursor() {
	items := a.panelItems()
	if len(items) == 0 {
		return
	}
	r := items[clamp(a.panelCursor, len(items))]
	a.selected.Remove(r)
	a.panelCursor = clamp(a.panelCursor, len(a.panelItems()))
	a.status = fmt.Sprintf("removed %q", r.Title)
}

// checkedRows is what the table shows as checked: the visible selection.
func (a *App) checkedRows() []catalog.Record {
	return a.selected.VisibleSelection(a.pages.CurrentRecords())
}

// panelItems is the cross-page selection narrowed by the panel filter.
func (a *App) panelItems() []catalog.Record {
	all := a.selected.All()
	q := strings.TrimSpace(a.filter.Value())
	if q == "" {
		return all
	}
	out := make([]catalog.Record, 0, len(all))
	for _, r := range all {
		if matchesQuery(r, q) {
			out = append(out, r)
		}
	}
	return out
}

// matchesQuery reports whether q is a substring of the title or artist, or
// close to one of their words by edit distance.
func matchesQuery(r catalog.Record, q string) bool {
	q = strings.ToLower(q)
	hay := strings.ToLower(r.Title + " " + r.ArtistDisplay)
	if strings.Contains(hay, q) {
		return true
	}
	if len(q) < 3 {
		return false
	}
	allowed := 1
	if len(q) >= 6 {
		allowed = 2
	}
	for _, word := range strings.Fields(hay) {
		if levenshtein.ComputeDistance(word, q) <= allowed {
			return true
		}
	}
	return false
}

func (a *App) exportCmd() tea.Cmd {
	records := a.selected.All()
	if len(records) == 0 {
		return func() tea.Msg { return statusMsg("nothing selected to export") }
	}
	dir := a.cfg.Export.Dir
	now := a.now()
	return func() tea.Msg {
		path, err := export.WriteSelection(dir, records, now)
		if err != nil {
			return errMsg{fmt.Errorf("export: %w", err)}
		}
		return exportDoneMsg{Path: path, Count: len(records)}
	}
}

func (a *App) savePrefsCmd() tea.Cmd {
	cfg := a.cfg
	return func() tea.Msg {
		if err := config.Save(cfg); err != nil {
			return errMsg{err}
		}
		return statusMsg("preferences saved")
	}
}

// purgeCmd drops expired page responses left over from earlier sessions.
func (a *App) purgeCmd() tea.Cmd {
	if a.services.Cache == nil {
		return nil
	}
	cache := a.services.Cache
	return func() tea.Msg {
		n, err := cache.Purge(a.ctx)
		if err != nil {
			a.log.Warn("purge page cache", zap.Error(err))
			return nil
		}
		size, err := cache.Size(a.ctx)
		if err != nil {
			a.log.Warn("count page cache", zap.Error(err))
			return nil
		}
		a.log.Debug("purged page cache", zap.Int64("rows", n), zap.Int("cached_pages", size))
		return nil
	}
}

func (a *App) clearCacheCmd() tea.Cmd {
	return func() tea.Msg {
		if a.services.Maintenance == nil {
			return errMsg{fmt.Errorf("page cache not configured")}
		}
		if err := a.services.Maintenance.ClearCache(a.ctx); err != nil {
			return errMsg{err}
		}
		return statusMsg("page cache cleared")
	}
}

// messages
type pageLoadedMsg pagecache.Result

type statusMsg string

type errMsg struct{ error }

type exportDoneMsg struct {
	Path  string
	Count int
}
