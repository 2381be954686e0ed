// Package tui is the terminal front end. It renders the trip listing, the
// trip detail screen with its map canvas and the stop dialog, and forwards
// every input to the headless controllers in triplist, tripdetail and
// mapview. API calls run as Bubble Tea commands.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrysoftwarecorp/route-nest/internal/clock"
	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/mapview"
	"github.com/harrysoftwarecorp/route-nest/internal/places"
	"github.com/harrysoftwarecorp/route-nest/internal/routing"
	"github.com/harrysoftwarecorp/route-nest/internal/stopform"
	"github.com/harrysoftwarecorp/route-nest/internal/tripdetail"
	"github.com/harrysoftwarecorp/route-nest/internal/triplist"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// Defaults for Options.
const (
	DefaultZoom = 13
	fallbackW   = 80
	fallbackH   = 24
)

// API is everything the screens call on the RouteNest server.
type API interface {
	triplist.API
	tripdetail.API
}

// Options configures the program.
type Options struct {
	API API
	// Router draws lines between stops without a stored route. Nil draws
	// straight segments.
	Router routing.Router
	// Places backs the map search box. Nil disables it.
	Places     places.Searcher
	PlaceLimit int
	Clipboard  tripdetail.Clipboard
	Clock      clock.Clock
	Logger     *slog.Logger

	NarrowWidth int
	DefaultZoom int
	// InitialTripID opens this trip instead of the listing.
	InitialTripID string
}

type screen int

const (
	screenList screen = iota
	screenDetail
	screenForm
)

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	opts   Options
	logger *slog.Logger
	styles styles

	list   *triplist.Controller
	detail *tripdetail.Controller

	screen   screen
	width    int
	height   int
	navigate string

	// listing
	cursor    int
	filtering bool
	filter    textinput.Model
	newName   textinput.Model

	// detail
	tripID  string
	canvas  *mapview.Canvas
	adapter *mapview.Adapter
	mode    types.TransportMode
	zoom    int

	form   stopFormView
	search placeSearch

	spinner spinner.Model
	status  string
	errMsg  string
}

// New builds the root model. Options.API is required.
func New(ctx context.Context, opts Options) *Model {
	logger := logging.Or(opts.Logger)
	zoom := opts.DefaultZoom
	if zoom <= 0 {
		zoom = DefaultZoom
	}

	filter := newInput("/ ")
	filter.Placeholder = "filter by name"
	newName := newInput("New trip: ")
	newName.Placeholder = "Trip name"
	newName.CharLimit = 120

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = defaultStyles().title

	m := &Model{
		ctx:     ctx,
		opts:    opts,
		logger:  logger,
		styles:  defaultStyles(),
		filter:  filter,
		newName: newName,
		mode:    types.ModeCar,
		zoom:    zoom,
		form:    newStopFormView(),
		search:  newPlaceSearch(),
		spinner: sp,
	}
	m.list = triplist.New(triplist.Options{
		API:    opts.API,
		Logger: logger,
		OnOpen: func(id string) { m.navigate = id },
	})
	m.detail = tripdetail.New(tripdetail.Options{
		API:         opts.API,
		Clipboard:   opts.Clipboard,
		Clock:       opts.Clock,
		Logger:      logger,
		NarrowWidth: opts.NarrowWidth,
	})
	return m
}

// newInput returns a text input with a steady cursor.
func newInput(prompt string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Cursor.SetMode(cursor.CursorStatic)
	return in
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	m.unmountMap()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.opts.InitialTripID != "" {
		return tea.Batch(m.spinner.Tick, m.openTrip(m.opts.InitialTripID))
	}
	return tea.Batch(m.spinner.Tick, loadTrips(m.ctx, m.list))
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.detail.SetViewportWidth(msg.Width)
		m.resizeCanvas()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tripsLoadedMsg:
		m.notify("", msg.err)
		m.clampCursor()
		return m, nil

	case tripCreatedMsg:
		if msg.err != nil {
			m.notify("", msg.err)
			return m, nil
		}
		m.newName.Reset()
		m.newName.Blur()
		m.selectTrip(msg.trip.ID)
		m.notify("Created "+msg.trip.Name, nil)
		return m, nil

	case tripDeletedMsg:
		m.notify("Trip deleted", msg.err)
		m.clampCursor()
		return m, nil

	case tripLoadedMsg:
		if errors.Is(msg.err, tripdetail.ErrSuperseded) || msg.id != m.tripID {
			return m, nil
		}
		m.notify("", msg.err)
		if msg.err != nil {
			return m, nil
		}
		return m, renderMap(m.ctx, m.detail, m.adapter, true)

	case mapRenderedMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.notify("", msg.err)
		}
		return m, nil

	case mutatedMsg:
		return m, m.mutated(msg)

	case sharedMsg:
		m.shared(msg)
		return m, nil

	case placesFoundMsg:
		m.placesFound(msg)
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		var cmd tea.Cmd
		switch m.screen {
		case screenList:
			cmd = m.updateList(msg)
		case screenDetail:
			cmd = m.updateDetail(msg)
		case screenForm:
			cmd = m.updateForm(msg)
		}
		if id := m.navigate; id != "" {
			m.navigate = ""
			return m, tea.Batch(cmd, m.openTrip(id))
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	switch m.screen {
	case screenDetail:
		return m.detailView()
	case screenForm:
		return m.formView()
	}
	return m.listView()
}

// notify replaces the footer message. A non-nil err wins over status.
func (m *Model) notify(status string, err error) {
	if err != nil {
		m.status = ""
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.status = status
}

func (m *Model) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = fallbackW
	}
	if h <= 0 {
		h = fallbackH
	}
	return w, h
}

// openTrip mounts a fresh map for trip id and starts loading it.
func (m *Model) openTrip(id string) tea.Cmd {
	m.unmountMap()
	m.search.close()
	m.tripID = id
	m.screen = screenDetail
	m.notify("", nil)

	l := m.detailLayout(false)
	m.canvas = mapview.NewCanvas(l.mapW, l.mapH, geo.DefaultCenter, m.zoom)
	detail := m.detail
	m.adapter = mapview.New(m.canvas, mapview.Options{
		Router:  m.opts.Router,
		OnClick: func(p types.LatLng) { detail.MapClicked(p.Lat, p.Lng) },
		OnReady: detail.AttachMap,
		Logger:  m.logger,
	})
	return loadTrip(m.ctx, m.detail, id)
}

// leaveTrip disposes the map and returns to a refreshed listing.
func (m *Model) leaveTrip() tea.Cmd {
	m.unmountMap()
	m.search.close()
	m.detail.Leave()
	m.tripID = ""
	m.screen = screenList
	m.notify("", nil)
	return loadTrips(m.ctx, m.list)
}

func (m *Model) unmountMap() {
	if m.adapter != nil {
		m.adapter.Dispose()
		m.adapter = nil
	}
	m.detail.AttachMap(nil)
	m.canvas = nil
}

func (m *Model) resizeCanvas() {
	if m.canvas == nil {
		return
	}
	l := m.detailLayout(m.detail.State().Expanded)
	m.canvas.Resize(l.mapW, l.mapH)
}

// mutated handles the outcome of a detail mutation.
func (m *Model) mutated(msg mutatedMsg) tea.Cmd {
	if msg.err != nil {
		var verr *stopform.ValidationError
		if errors.As(msg.err, &verr) {
			m.form.errs = verr.Fields
		}
		m.notify("", msg.err)
		return nil
	}
	m.notify(doneText(msg.action), nil)
	if m.screen == screenForm && !m.detail.Form().IsOpen() {
		m.closeForm()
	}
	return renderMap(m.ctx, m.detail, m.adapter, false)
}

func (m *Model) shared(msg sharedMsg) {
	switch {
	case msg.err == nil:
		m.notify("Share link copied: "+msg.url, nil)
	case msg.url != "":
		m.notify("", fmt.Errorf("share link %s: %w", msg.url, msg.err))
	default:
		m.notify("", msg.err)
	}
}

func doneText(action string) string {
	switch action {
	case actionSaveStop:
		return "Stop saved"
	case actionDeleteStop:
		return "Stop deleted"
	case actionToggleStop:
		return "Stop updated"
	case actionMoveStop:
		return "Stops reordered"
	case actionGenerate:
		return "Routes generated"
	case actionOptimize:
		return "Route optimized"
	}
	return "Done"
}

// Mutation actions.
const (
	actionSaveStop   = "save stop"
	actionDeleteStop = "delete stop"
	actionToggleStop = "toggle stop"
	actionMoveStop   = "move stop"
	actionGenerate   = "generate routes"
	actionOptimize   = "optimize route"
)
