// Package triplist holds the state of the trip listing screen: the fetched
// summaries, the name filter and the create form.
package triplist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/viewstate"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// Empty-state messages.
const (
	EmptyText       = "No trips found. Start planning your next adventure!"
	EmptySearchText = "No trips found for your search."
)

// Controller errors.
var (
	ErrBusy         = errors.New("another change is still in progress")
	ErrCannotCreate = errors.New("trip name must not be empty")
)

// API is the subset of the RouteNest client the listing needs.
type API interface {
	ListTrips(ctx context.Context) ([]types.TripSummary, error)
	CreateTrip(ctx context.Context, req types.CreateTripRequest) (*types.Trip, error)
	DeleteTrip(ctx context.Context, id string) error
	SearchTrips(ctx context.Context, params types.SearchParams) ([]types.TripSummary, error)
}

// Options configures a Controller.
type Options struct {
	API    API
	Logger *slog.Logger
	// OnOpen navigates to a trip.
	OnOpen func(id string)
}

// State is a snapshot of the listing.
type State struct {
	Status   viewstate.Status
	Visible  []types.TripSummary
	Total    int
	Query    string
	Creating bool
	NewName  string
	Pending  bool
	Err      error
}

// Controller is safe for concurrent use.
type Controller struct {
	api    API
	logger *slog.Logger
	onOpen func(string)
	load   viewstate.Machine

	mu       sync.Mutex
	trips    []types.TripSummary
	query    string
	creating bool
	newName  string
	pending  bool
	err      error
}

// New returns an idle listing. Options.API is required.
func New(opts Options) *Controller {
	return &Controller{
		api:    opts.API,
		logger: logging.Or(opts.Logger),
		onOpen: opts.OnOpen,
	}
}

// Load fetches every trip. On failure the list becomes empty. A later Load
// supersedes this one; the superseded result is dropped.
func (c *Controller) Load(ctx context.Context) error {
	lctx, ticket := c.load.Begin(ctx)
	trips, err := c.api.ListTrips(lctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.load.Finish(ticket, err) {
		return nil
	}
	if err != nil {
		c.trips = nil
		c.err = err
		logging.LogError(c.logger, "failed to load trips", err)
		return fmt.Errorf("load trips: %w", err)
	}
	c.trips = trips
	c.err = nil
	return nil
}

// SetQuery sets the name filter.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = q
}

// Visible returns the trips whose name contains the query, ignoring case,
// newest first.
func (c *Controller) Visible() []types.TripSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleLocked()
}

func (c *Controller) visibleLocked() []types.TripSummary {
	q := strings.ToLower(c.query)
	out := make([]types.TripSummary, 0, len(c.trips))
	for _, t := range c.trips {
		if strings.Contains(strings.ToLower(t.Name), q) {
			out = append(out, t)
		}
	}
	types.SortSummariesNewestFirst(out)
	return out
}

// EmptyMessage returns the text shown when Visible is empty.
func (c *Controller) EmptyMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(c.query) != "" && len(c.trips) > 0 {
		return EmptySearchText
	}
	return EmptyText
}

// ShowCreateForm shows or hides the create form. Hiding clears the name.
func (c *Controller) ShowCreateForm(show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creating = show
	if !show {
		c.newName = ""
	}
}

// SetNewName sets the name typed into the create form.
func (c *Controller) SetNewName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.newName = name
}

// CanCreate reports whether Create would be attempted.
func (c *Controller) CanCreate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canCreateLocked()
}

func (c *Controller) canCreateLocked() bool {
	return strings.TrimSpace(c.newName) != "" && !c.pending
}

// Create posts a trip with the typed name, then refetches the full list,
// clears the name and hides the form. It returns the created trip.
func (c *Controller) Create(ctx context.Context) (*types.Trip, error) {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if !c.canCreateLocked() {
		c.mu.Unlock()
		return nil, fmt.Errorf("create trip: %w: %w", types.ErrInvalidRequest, ErrCannotCreate)
	}
	req := types.CreateTripRequest{Name: strings.TrimSpace(c.newName)}
	c.pending = true
	c.mu.Unlock()

	trip, err := c.api.CreateTrip(ctx, req)
	if err == nil {
		err = c.Load(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if err != nil {
		c.err = err
		logging.LogError(c.logger, "failed to create trip", err, slog.String("name", req.Name))
		return nil, fmt.Errorf("create trip: %w", err)
	}
	c.newName = ""
	c.creating = false
	return trip, nil
}

// Delete removes a trip, then refetches the full list.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.pending = true
	c.mu.Unlock()

	err := c.api.DeleteTrip(ctx, id)
	if err == nil {
		err = c.Load(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if err != nil {
		c.err = err
		logging.LogError(c.logger, "failed to delete trip", err, slog.String("trip_id", id))
		return fmt.Errorf("delete trip: %w", err)
	}
	return nil
}

// SearchRemote runs a server-side search without touching the listing.
func (c *Controller) SearchRemote(ctx context.Context, params types.SearchParams) ([]types.TripSummary, error) {
	trips, err := c.api.SearchTrips(ctx, params)
	if err != nil {
		logging.LogError(c.logger, "failed to search trips", err, slog.String("query", params.Query))
		return nil, fmt.Errorf("search trips: %w", err)
	}
	types.SortSummariesNewestFirst(trips)
	return trips, nil
}

// Open navigates to a trip through OnOpen.
func (c *Controller) Open(id string) {
	if c.onOpen != nil {
		c.onOpen(id)
	}
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Status:   c.load.Status(),
		Visible:  c.visibleLocked(),
		Total:    len(c.trips),
		Query:    c.query,
		Creating: c.creating,
		NewName:  c.newName,
		Pending:  c.pending,
		Err:      c.err,
	}
}
