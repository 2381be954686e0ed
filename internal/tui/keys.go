package tui

import "github.com/charmbracelet/bubbles/key"

type listKeys struct {
	Up, Down, Open, New, Delete, Search, Reload, Quit key.Binding
}

var listKeyMap = listKeys{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new trip")),
	Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type detailKeys struct {
	Back, Up, Down, Edit, Add, AddHere, Delete, Complete, MoveUp, MoveDown,
	Generate, Mode, Optimize, Share, ViewAll, Panel, Find, ZoomIn, ZoomOut,
	PanLeft, PanRight, PanUp, PanDown, Reload, Quit key.Binding
}

var detailKeyMap = detailKeys{
	Back:     key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Up:       key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "prev stop")),
	Down:     key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "next stop")),
	Edit:     key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("e", "edit")),
	Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add stop")),
	AddHere:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "add at centre")),
	Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
	Complete: key.NewBinding(key.WithKeys("c", " "), key.WithHelp("c", "done")),
	MoveUp:   key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move up")),
	MoveDown: key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move down")),
	Generate: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "routes")),
	Mode:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "mode")),
	Optimize: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "optimize")),
	Share:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "share")),
	ViewAll:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view all")),
	Panel:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "panel")),
	Find:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "find place")),
	ZoomIn:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
	ZoomOut:  key.NewBinding(key.WithKeys("-")),
	PanLeft:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←↑↓→", "pan")),
	PanRight: key.NewBinding(key.WithKeys("right")),
	PanUp:    key.NewBinding(key.WithKeys("up")),
	PanDown:  key.NewBinding(key.WithKeys("down")),
	Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type placeKeys struct {
	Next, Prev, Go, AddStop, Edit, Close key.Binding
}

var placeKeyMap = placeKeys{
	Next:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "choose")),
	Prev:    key.NewBinding(key.WithKeys("k", "up")),
	Go:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "go")),
	AddStop: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add stop")),
	Edit:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "new search")),
	Close:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
}

type formKeys struct {
	Next, Prev, Left, Right, Submit, Cancel key.Binding
}

var formKeyMap = formKeys{
	Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
	Left:   key.NewBinding(key.WithKeys("left"), key.WithHelp("←/→", "change")),
	Right:  key.NewBinding(key.WithKeys("right")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
	Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}

// helpLine renders the help text of the bindings that have one.
func helpLine(s styles, bindings ...key.Binding) string {
	out := ""
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		if out != "" {
			out += "  "
		}
		out += h.Key + " " + h.Desc
	}
	return s.help.Render(out)
}
