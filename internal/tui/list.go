package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrysoftwarecorp/route-nest/internal/triplist"
	"github.com/harrysoftwarecorp/route-nest/internal/viewstate"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	if m.list.State().Creating {
		return m.updateCreate(msg)
	}
	if m.filtering {
		return m.updateFilter(msg)
	}
	switch {
	case key.Matches(msg, listKeyMap.Quit):
		return tea.Quit
	case key.Matches(msg, listKeyMap.Up):
		m.cursor--
		m.clampCursor()
	case key.Matches(msg, listKeyMap.Down):
		m.cursor++
		m.clampCursor()
	case key.Matches(msg, listKeyMap.Open):
		if t, ok := m.selectedSummary(); ok {
			m.list.Open(t.ID)
		}
	case key.Matches(msg, listKeyMap.New):
		m.list.ShowCreateForm(true)
		m.newName.Reset()
		return m.newName.Focus()
	case key.Matches(msg, listKeyMap.Search):
		m.filtering = true
		return m.filter.Focus()
	case key.Matches(msg, listKeyMap.Delete):
		if t, ok := m.selectedSummary(); ok {
			return deleteTrip(m.ctx, m.list, t.ID)
		}
	case key.Matches(msg, listKeyMap.Reload):
		return loadTrips(m.ctx, m.list)
	}
	return nil
}

func (m *Model) updateCreate(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.list.ShowCreateForm(false)
		m.newName.Reset()
		m.newName.Blur()
		return nil
	case tea.KeyEnter:
		if !m.list.CanCreate() {
			m.notify("", triplist.ErrCannotCreate)
			return nil
		}
		return createTrip(m.ctx, m.list)
	}
	var cmd tea.Cmd
	m.newName, cmd = m.newName.Update(msg)
	m.list.SetNewName(m.newName.Value())
	return cmd
}

func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.filter.Reset()
		m.list.SetQuery("")
		fallthrough
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		m.clampCursor()
		return nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.list.SetQuery(m.filter.Value())
	m.cursor = 0
	return cmd
}

func (m *Model) clampCursor() {
	n := len(m.list.Visible())
	m.cursor = min(max(m.cursor, 0), max(n-1, 0))
}

func (m *Model) selectedSummary() (types.TripSummary, bool) {
	visible := m.list.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return types.TripSummary{}, false
	}
	return visible[m.cursor], true
}

// selectTrip moves the cursor onto trip id when it is visible.
func (m *Model) selectTrip(id string) {
	for i, t := range m.list.Visible() {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
	m.clampCursor()
}

func (m *Model) listView() string {
	w, h := m.size()
	st := m.list.State()

	var b strings.Builder
	b.WriteString(m.styles.title.Render("RouteNest · My Trips"))
	b.WriteString(m.styles.muted.Render(fmt.Sprintf("  %d trips", st.Total)))
	b.WriteString("\n\n")

	if st.Creating {
		b.WriteString(m.newName.View() + "\n\n")
	}
	if m.filtering || st.Query != "" {
		b.WriteString(m.filter.View() + "\n\n")
	}

	// Title, blank line, footer.
	rows := max(h-6, 1)
	switch {
	case st.Status == viewstate.Loading && st.Total == 0:
		b.WriteString(m.spinner.View() + " Loading trips…\n")
	case len(st.Visible) == 0:
		b.WriteString(m.styles.muted.Render(m.list.EmptyMessage()) + "\n")
	default:
		start := max(0, m.cursor-rows+1)
		for i := start; i < len(st.Visible) && i < start+rows; i++ {
			b.WriteString(m.tripRow(st.Visible[i], i == m.cursor, w) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.footer(st.Pending || st.Status == viewstate.Loading))
	b.WriteString("\n")
	if st.Creating {
		b.WriteString(helpLine(m.styles, key.NewBinding(key.WithHelp("enter", "create")), key.NewBinding(key.WithHelp("esc", "cancel"))))
	} else {
		k := listKeyMap
		b.WriteString(helpLine(m.styles, k.Up, k.Down, k.Open, k.New, k.Delete, k.Search, k.Reload, k.Quit))
	}
	return b.String()
}

func (m *Model) tripRow(t types.TripSummary, selected bool, width int) string {
	meta := []string{fmt.Sprintf("%d stops", t.StopCount)}
	if t.Stats.TotalDistance > 0 {
		meta = append(meta, types.FormatDistance(t.Stats.TotalDistance))
	}
	if t.EstimatedDuration > 0 {
		meta = append(meta, fmt.Sprintf("%d days", t.EstimatedDuration))
	}
	if t.Category != "" {
		meta = append(meta, string(t.Category))
	}
	if t.Rating != nil {
		meta = append(meta, fmt.Sprintf("★ %.1f", *t.Rating))
	}
	meta = append(meta, t.CreatedAt.Local().Format("2006-01-02"))

	name := m.styles.item.Render("  " + t.Name)
	if selected {
		name = m.styles.selected.Render("› " + t.Name)
	}
	line := name + m.styles.muted.Render("  "+strings.Join(meta, " · "))
	return truncate(line, width)
}

// footer renders the status line, with the spinner while busy.
func (m *Model) footer(busy bool) string {
	prefix := ""
	if busy {
		prefix = m.spinner.View() + " "
	}
	if m.errMsg != "" {
		return prefix + m.styles.errorText.Render(m.errMsg)
	}
	return prefix + m.styles.status.Render(m.status)
}
