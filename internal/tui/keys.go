package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	PrevPage    key.Binding
	NextPage    key.Binding
	FirstPage   key.Binding
	LastPage    key.Binding
	Toggle      key.Binding
	ToggleAll   key.Binding
	Focus       key.Binding
	Remove      key.Binding
	Filter      key.Binding
	Refresh     key.Binding
	Export      key.Binding
	UncheckMode key.Binding
	SavePrefs   key.Binding
	ClearCache  key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PrevPage:    key.NewBinding(key.WithKeys("left", "h", "p"), key.WithHelp("←/p", "prev page")),
		NextPage:    key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→/n", "next page")),
		FirstPage:   key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first page")),
		LastPage:    key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last page")),
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "check row")),
		ToggleAll:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "check page")),
		Focus:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "table/selected")),
		Remove:      key.NewBinding(key.WithKeys("x", "delete", "backspace"), key.WithHelp("x", "remove")),
		Filter:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter selected")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload page")),
		Export:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export selected")),
		UncheckMode: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "uncheck removes")),
		SavePrefs:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save prefs")),
		ClearCache:  key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "clear cache")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.PrevPage, k.NextPage, k.Focus, k.Remove, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage, k.FirstPage, k.LastPage},
		{k.Toggle, k.ToggleAll, k.Focus, k.Remove, k.Filter},
		{k.Refresh, k.Export, k.UncheckMode, k.SavePrefs, k.ClearCache},
		{k.Help, k.Quit},
	}
}
