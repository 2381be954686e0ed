package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrysoftwarecorp/route-nest/internal/mapview"
	"github.com/harrysoftwarecorp/route-nest/internal/tripdetail"
	"github.com/harrysoftwarecorp/route-nest/internal/triplist"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// commandTimeout bounds every API call started from the UI.
const commandTimeout = 30 * time.Second

type tripsLoadedMsg struct{ err error }

type tripCreatedMsg struct {
	trip *types.Trip
	err  error
}

type tripDeletedMsg struct{ err error }

type tripLoadedMsg struct {
	id  string
	err error
}

type mapRenderedMsg struct {
	fit bool
	err error
}

type mutatedMsg struct {
	action string
	err    error
}

type sharedMsg struct {
	url string
	err error
}

func loadTrips(ctx context.Context, list *triplist.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		return tripsLoadedMsg{err: list.Load(ctx)}
	}
}

func createTrip(ctx context.Context, list *triplist.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		trip, err := list.Create(ctx)
		return tripCreatedMsg{trip: trip, err: err}
	}
}

func deleteTrip(ctx context.Context, list *triplist.Controller, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		return tripDeletedMsg{err: list.Delete(ctx, id)}
	}
}

func loadTrip(ctx context.Context, detail *tripdetail.Controller, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		return tripLoadedMsg{id: id, err: detail.Load(ctx, id)}
	}
}

// renderMap draws the current trip. fit also fits the view to every stop.
func renderMap(ctx context.Context, detail *tripdetail.Controller, a *mapview.Adapter, fit bool) tea.Cmd {
	trip := detail.Trip()
	if trip == nil || a == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		if err := a.Render(ctx, trip.Stops, trip.Routes); err != nil {
			return mapRenderedMsg{fit: fit, err: err}
		}
		if fit {
			a.FocusAllStops()
		}
		return mapRenderedMsg{fit: fit}
	}
}

// mutation runs fn against the detail controller and reports the outcome.
func mutation(ctx context.Context, action string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		return mutatedMsg{action: action, err: fn(ctx)}
	}
}

func shareTrip(ctx context.Context, detail *tripdetail.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		url, err := detail.Share(ctx)
		return sharedMsg{url: url, err: err}
	}
}
