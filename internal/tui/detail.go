package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/internal/mapview"
	"github.com/harrysoftwarecorp/route-nest/internal/stopform"
	"github.com/harrysoftwarecorp/route-nest/internal/tripdetail"
	"github.com/harrysoftwarecorp/route-nest/internal/viewstate"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// Detail screen geometry, in cells.
const (
	panelWidth   = 42 // outer width of the stop panel
	headerHeight = 2
	footerHeight = 2
	panCols      = 6
	panRows      = 3
)

// detailLayout places the panel and the map. mapX and mapY are the screen
// cell of the canvas origin, inside the map border.
type detailLayout struct {
	panel      int
	bodyH      int
	mapX, mapY int
	mapW, mapH int
}

func (m *Model) detailLayout(expanded bool) detailLayout {
	w, h := m.size()
	l := detailLayout{bodyH: max(h-headerHeight-footerHeight, 3)}
	if expanded {
		l.panel = min(panelWidth, w/2)
	}
	l.mapX = l.panel + 1
	l.mapY = headerHeight + 1
	l.mapW = max(w-l.panel-2, 1)
	l.mapH = max(l.bodyH-2, 1)
	return l
}

func (m *Model) updateDetail(msg tea.KeyMsg) tea.Cmd {
	defer m.resizeCanvas()
	if m.search.active {
		return m.updatePlaceSearch(msg)
	}
	st := m.detail.State()
	stops := orderedStops(st.Trip)
	sel, idx := selectedStop(stops, st.Selected)
	detail := m.detail

	k := detailKeyMap
	switch {
	case key.Matches(msg, k.Quit):
		return tea.Quit
	case key.Matches(msg, k.Back):
		return m.leaveTrip()
	case key.Matches(msg, k.Reload):
		return loadTrip(m.ctx, m.detail, m.tripID)
	case key.Matches(msg, k.Panel):
		m.detail.ToggleExpanded()
	case key.Matches(msg, k.Find):
		return m.openPlaceSearch()
	case key.Matches(msg, k.Up), key.Matches(msg, k.Down):
		if len(stops) == 0 {
			return nil
		}
		step := 1
		if key.Matches(msg, k.Up) {
			step = -1
		}
		next := 0
		if idx >= 0 {
			next = min(max(idx+step, 0), len(stops)-1)
		}
		if err := m.detail.SelectStop(stops[next].ID); err != nil {
			m.notify("", err)
		}
	case key.Matches(msg, k.ViewAll):
		m.detail.ClearSelection()
		m.detail.ViewAllStops()
	case key.Matches(msg, k.ZoomIn):
		m.zoomBy(1)
	case key.Matches(msg, k.ZoomOut):
		m.zoomBy(-1)
	case key.Matches(msg, k.PanLeft):
		m.panBy(-panCols, 0)
	case key.Matches(msg, k.PanRight):
		m.panBy(panCols, 0)
	case key.Matches(msg, k.PanUp):
		m.panBy(0, -panRows)
	case key.Matches(msg, k.PanDown):
		m.panBy(0, panRows)
	case key.Matches(msg, k.Add):
		if st.Trip != nil {
			m.detail.OpenAddStop()
		}
	case key.Matches(msg, k.AddHere):
		if st.Trip != nil && m.canvas != nil && m.adapter != nil {
			center, _ := m.canvas.View()
			m.adapter.HandleClick(center)
		}
	case key.Matches(msg, k.Edit):
		if sel != nil {
			if err := m.detail.OpenEditStop(sel.ID); err != nil {
				m.notify("", err)
			}
		}
	case key.Matches(msg, k.Delete):
		if sel != nil {
			id := sel.ID
			return mutation(m.ctx, actionDeleteStop, func(ctx context.Context) error {
				return detail.DeleteStop(ctx, id)
			})
		}
	case key.Matches(msg, k.Complete):
		if sel != nil {
			id := sel.ID
			return mutation(m.ctx, actionToggleStop, func(ctx context.Context) error {
				return detail.ToggleStopCompleted(ctx, id)
			})
		}
	case key.Matches(msg, k.MoveUp), key.Matches(msg, k.MoveDown):
		if sel != nil {
			id, delta := sel.ID, 1
			if key.Matches(msg, k.MoveUp) {
				delta = -1
			}
			return mutation(m.ctx, actionMoveStop, func(ctx context.Context) error {
				return detail.MoveStop(ctx, id, delta)
			})
		}
	case key.Matches(msg, k.Mode):
		i := slices.Index(types.TransportModes, m.mode)
		m.mode = types.TransportModes[(i+1)%len(types.TransportModes)]
		m.notify("Transport mode: "+string(m.mode), nil)
	case key.Matches(msg, k.Generate):
		mode := m.mode
		return mutation(m.ctx, actionGenerate, func(ctx context.Context) error {
			return detail.GenerateRoutes(ctx, mode)
		})
	case key.Matches(msg, k.Optimize):
		return mutation(m.ctx, actionOptimize, detail.OptimizeRoute)
	case key.Matches(msg, k.Share):
		return shareTrip(m.ctx, m.detail)
	}

	if m.detail.Form().IsOpen() {
		return m.openForm()
	}
	return nil
}

func (m *Model) zoomBy(delta int) {
	if m.canvas != nil {
		m.canvas.Zoom(delta)
		_, m.zoom = m.canvas.View()
	}
}

func (m *Model) panBy(cols, rows int) {
	if m.canvas != nil {
		m.canvas.Pan(cols, rows)
	}
}

// handleMouse turns a left click on the canvas into a map click and the
// wheel into zoom.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.screen != screenDetail || m.canvas == nil {
		return nil
	}
	if msg.Action != tea.MouseActionPress {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.zoomBy(1)
		return nil
	case tea.MouseButtonWheelDown:
		m.zoomBy(-1)
		return nil
	case tea.MouseButtonLeft:
	default:
		return nil
	}
	if m.detail.Trip() == nil {
		return nil
	}
	l := m.detailLayout(m.detail.State().Expanded)
	if _, ok := m.canvas.Click(msg.X-l.mapX, msg.Y-l.mapY); !ok {
		return nil
	}
	if m.detail.Form().IsOpen() {
		return m.openForm()
	}
	return nil
}

func orderedStops(t *types.Trip) []types.Stop {
	if t == nil {
		return nil
	}
	return t.OrderedStops()
}

// selectedStop returns the stop with id and its index, or nil and -1.
func selectedStop(stops []types.Stop, id int64) (*types.Stop, int) {
	if id == 0 {
		return nil, -1
	}
	for i := range stops {
		if stops[i].ID == id {
			return &stops[i], i
		}
	}
	return nil, -1
}

func (m *Model) detailView() string {
	w, _ := m.size()
	st := m.detail.State()
	l := m.detailLayout(st.Expanded)

	var header string
	switch {
	case st.Trip != nil:
		header = m.tripHeader(st.Trip, w)
	case st.Status == viewstate.Error:
		header = m.styles.title.Render("Trip unavailable") + "\n" +
			m.styles.muted.Render("r to retry, esc to go back")
	default:
		header = m.spinner.View() + " Loading trip…\n"
	}

	body := m.mapView(l)
	if l.panel > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.stopPanel(st, l), body)
	}

	k := detailKeyMap
	help := helpLine(m.styles, k.Back, k.Down, k.Up, k.Add, k.AddHere, k.Edit, k.Delete,
		k.Complete, k.MoveUp, k.MoveDown, k.Generate, k.Mode, k.Optimize, k.Share,
		k.Find, k.ViewAll, k.Panel, k.ZoomIn, k.PanLeft, k.Quit)

	footer := m.footer(st.Pending || st.Status == viewstate.Loading)
	if _, zoom := m.canvasView(); zoom > 0 {
		footer += m.styles.muted.Render(fmt.Sprintf("  mode %s · zoom %d", m.mode, zoom))
	}
	if m.search.active {
		footer, help = m.placeSearchView(w)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		truncate(footer, w),
		truncate(help, w),
	)
}

func (m *Model) canvasView() (types.LatLng, int) {
	if m.canvas == nil {
		return types.LatLng{}, 0
	}
	return m.canvas.View()
}

func (m *Model) tripHeader(t *types.Trip, width int) string {
	p := t.Progress()
	title := m.styles.title.Render(t.Name) + m.styles.muted.Render(
		fmt.Sprintf("  %d/%d stops · %.0f%%", p.CompletedStops, p.TotalStops, p.PercentComplete))
	if t.Stats.TotalDistance > 0 {
		title += m.styles.muted.Render(" · " + types.FormatDistance(t.Stats.TotalDistance))
	}

	sheet := tripdetail.SheetFor(t, geo.DefaultCenter)
	parts := []string{"📍 " + sheet.Location}
	if sheet.Distance != "" {
		parts = append(parts, sheet.Distance)
	}
	parts = append(parts, sheet.Duration)
	if sheet.Next != nil {
		parts = append(parts, "next: "+sheet.Next.Name)
	}
	return truncate(title, width) + "\n" + truncate(m.styles.subtitle.Render(strings.Join(parts, " · ")), width)
}

func (m *Model) stopPanel(st tripdetail.State, l detailLayout) string {
	inner := max(l.panel-4, 1)
	rows := max(l.bodyH-2, 1)
	stops := orderedStops(st.Trip)
	_, idx := selectedStop(stops, st.Selected)

	lines := make([]string, 0, rows)
	if len(stops) == 0 {
		lines = append(lines, m.styles.muted.Render("No stops yet."), m.styles.muted.Render("Press a or click the map."))
	}
	start := max(0, idx-rows+1)
	for i := start; i < len(stops) && len(lines) < rows; i++ {
		lines = append(lines, truncate(m.stopLine(stops[i], i, i == idx), inner))
	}
	return m.styles.panel.Width(l.panel - 2).Height(rows).Render(strings.Join(lines, "\n"))
}

func (m *Model) stopLine(s types.Stop, i int, selected bool) string {
	mark := " "
	switch {
	case s.IsCompleted:
		mark = "✓"
	case s.IsSkipped:
		mark = "–"
	}
	opt := stopform.StopTypeOf(s.StopType)
	text := fmt.Sprintf("%s %d. %s %s", mark, i+1, opt.Emoji, s.Name)
	meta := fmt.Sprintf(" %s · %s", s.PlannedArrival.Local().Format("15:04"), stopform.FormatDuration(s.EstimatedDuration))
	style := m.styles.item
	if selected {
		style = m.styles.selected
	}
	return style.Render(text) + toneStyle(stopform.PriorityOf(s.Priority).Tone).Render(" •") + m.styles.muted.Render(meta)
}

// mapView rasterizes the canvas, styling runs of equal cell kinds.
func (m *Model) mapView(l detailLayout) string {
	if m.canvas == nil {
		return m.styles.mapFrame.Width(l.mapW).Height(l.mapH).Render("")
	}
	var b strings.Builder
	for r, row := range m.canvas.Cells() {
		if r > 0 {
			b.WriteByte('\n')
		}
		for i := 0; i < len(row); {
			j := i
			for j < len(row) && row[j].Kind == row[i].Kind {
				j++
			}
			run := make([]rune, 0, j-i)
			for _, c := range row[i:j] {
				run = append(run, c.Rune)
			}
			if row[i].Kind == mapview.CellEmpty {
				b.WriteString(string(run))
			} else {
				b.WriteString(m.styles.cell(row[i].Kind).Render(string(run)))
			}
			i = j
		}
	}
	return m.styles.mapFrame.Render(b.String())
}
