package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrysoftwarecorp/route-nest/internal/places"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

var errNoPlaceSearch = errors.New("place search is not configured")

// placeSearch is the map search box of the detail screen. While typing the
// input has focus; afterwards the results are browsed one at a time.
type placeSearch struct {
	active  bool
	typing  bool
	busy    bool
	query   string
	input   textinput.Model
	results []places.Place
	cursor  int
	// seq identifies the latest search. Results of older searches are
	// dropped.
	seq int
}

func newPlaceSearch() placeSearch {
	in := newInput("Find: ")
	in.Placeholder = "Search for a location"
	in.CharLimit = 200
	return placeSearch{input: in}
}

func (s *placeSearch) close() {
	s.active = false
	s.typing = false
	s.busy = false
	s.results = nil
	s.cursor = 0
	s.input.Blur()
}

func (s *placeSearch) selected() (places.Place, bool) {
	if s.cursor < 0 || s.cursor >= len(s.results) {
		return places.Place{}, false
	}
	return s.results[s.cursor], true
}

type placesFoundMsg struct {
	seq    int
	places []places.Place
	err    error
}

func searchPlaces(ctx context.Context, s places.Searcher, seq int, q places.Query) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		found, err := s.Search(ctx, q)
		return placesFoundMsg{seq: seq, places: found, err: err}
	}
}

// openPlaceSearch focuses the search box.
func (m *Model) openPlaceSearch() tea.Cmd {
	if m.opts.Places == nil {
		m.notify("", errNoPlaceSearch)
		return nil
	}
	m.search.active = true
	m.search.typing = true
	m.search.input.SetValue(m.search.query)
	m.search.input.CursorEnd()
	return m.search.input.Focus()
}

func (m *Model) updatePlaceSearch(msg tea.KeyMsg) tea.Cmd {
	s := &m.search
	if s.typing {
		switch msg.Type {
		case tea.KeyEsc:
			s.close()
			return nil
		case tea.KeyEnter:
			text := strings.TrimSpace(s.input.Value())
			if text == "" {
				return nil
			}
			s.seq++
			s.query = text
			s.typing = false
			s.busy = true
			s.results = nil
			s.cursor = 0
			s.input.Blur()
			q := places.Query{Text: text, Limit: m.opts.PlaceLimit}
			if m.canvas != nil {
				center, _ := m.canvas.View()
				q.Near = &center
			}
			return searchPlaces(m.ctx, m.opts.Places, s.seq, q)
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return cmd
	}

	k := placeKeyMap
	switch {
	case key.Matches(msg, k.Close):
		s.close()
	case key.Matches(msg, k.Edit):
		s.typing = true
		return s.input.Focus()
	case key.Matches(msg, k.Next):
		if len(s.results) > 0 {
			s.cursor = (s.cursor + 1) % len(s.results)
		}
	case key.Matches(msg, k.Prev):
		if len(s.results) > 0 {
			s.cursor = (s.cursor - 1 + len(s.results)) % len(s.results)
		}
	case key.Matches(msg, k.Go):
		if p, ok := s.selected(); ok {
			m.focusPlace(p)
			s.close()
			m.notify("Centred on "+p.Name, nil)
		}
	case key.Matches(msg, k.AddStop):
		p, ok := s.selected()
		if !ok || m.detail.Trip() == nil || m.adapter == nil {
			return nil
		}
		m.focusPlace(p)
		s.close()
		m.adapter.HandleClick(p.Position())
		m.detail.Form().SetName(p.Name)
		if m.detail.Form().IsOpen() {
			return m.openForm()
		}
	}
	return nil
}

// placesFound shows the results of the latest search.
func (m *Model) placesFound(msg placesFoundMsg) {
	s := &m.search
	if !s.active || msg.seq != s.seq {
		return
	}
	s.busy = false
	if msg.err != nil {
		m.notify("", fmt.Errorf("find %q: %w", s.query, msg.err))
		return
	}
	s.results = msg.places
	s.cursor = 0
	if len(s.results) == 0 {
		m.notify(fmt.Sprintf("No places found for %q", s.query), nil)
		return
	}
	m.notify("", nil)
}

func (m *Model) focusPlace(p places.Place) {
	if m.adapter == nil {
		return
	}
	m.adapter.FocusStop(p.Lat, p.Lng)
	if m.canvas != nil {
		_, m.zoom = m.canvas.View()
	}
}

// placeSearchView replaces the footer and help lines while the box is open.
func (m *Model) placeSearchView(width int) (string, string) {
	s := &m.search
	if s.typing {
		return truncate(s.input.View(), width), helpLine(m.styles, formKeyMap.Submit, placeKeyMap.Close)
	}
	k := placeKeyMap
	help := helpLine(m.styles, k.Next, k.Go, k.AddStop, k.Edit, k.Close)
	switch p, ok := s.selected(); {
	case s.busy:
		return m.spinner.View() + " Searching for " + s.query + "…", help
	case !ok:
		return m.footer(false), help
	default:
		line := m.styles.selected.Render(fmt.Sprintf("%d/%d %s", s.cursor+1, len(s.results), p.Name))
		meta := []string{}
		if p.Kind != "" {
			meta = append(meta, p.Kind)
		}
		if p.Distance > 0 {
			meta = append(meta, fmt.Sprintf("%s away", types.FormatDistance(p.Distance)))
		}
		if p.Label != "" && p.Label != p.Name {
			meta = append(meta, p.Label)
		}
		if len(meta) > 0 {
			line += m.styles.muted.Render(" · " + strings.Join(meta, " · "))
		}
		return truncate(line, width), help
	}
}
