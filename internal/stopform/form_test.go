package stopform

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrysoftwarecorp/route-nest/internal/clock"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

var now = time.Date(2025, 7, 23, 9, 0, 0, 0, time.UTC)

func newForm() (*Form, *clock.MockClock) {
	c := clock.NewMockClock(now)
	return New(Options{Clock: c}), c
}

func fill(f *Form) {
	f.Open(&types.LatLng{Lat: 10.7721, Lng: 106.6980})
	f.SetName("Ben Thanh Market")
}

func TestOpenDefaults(t *testing.T) {
	f, _ := newForm()
	f.Open(nil)

	v := f.Values()
	assert.True(t, v.Open)
	assert.Equal(t, types.StopAttraction, v.StopType)
	assert.Equal(t, types.PriorityMedium, v.Priority)
	assert.Equal(t, 60, v.Duration)
	assert.Equal(t, now, v.Arrival)
	assert.Empty(t, v.Latitude)
	assert.Empty(t, v.Longitude)
}

func TestPrefillSixDecimals(t *testing.T) {
	f, _ := newForm()
	f.Open(&types.LatLng{Lat: 10.77, Lng: 106.70})

	v := f.Values()
	assert.Equal(t, "10.770000", v.Latitude)
	assert.Equal(t, "106.700000", v.Longitude)
}

func TestCloseResetsEveryField(t *testing.T) {
	tests := []struct {
		name  string
		close func(f *Form)
	}{
		{"close", func(f *Form) { f.Close() }},
		{"set open false", func(f *Form) { f.SetOpen(false, nil) }},
		{"set open false with prefill", func(f *Form) { f.SetOpen(false, &types.LatLng{Lat: 1, Lng: 2}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, c := newForm()
			fill(f)
			f.SetDuration(180)
			f.SetStopType(types.StopFood)
			f.SetPriority(types.PriorityHigh)
			f.SetCost("120000")
			f.SetNotes("try the pho")
			c.Advance(time.Hour)

			tt.close(f)

			v := f.Values()
			assert.False(t, v.Open)
			assert.Empty(t, v.Latitude)
			assert.Empty(t, v.Longitude)
			assert.Equal(t, 60, v.Duration)
			assert.Empty(t, v.Name)
			assert.Empty(t, v.Cost)
			assert.Empty(t, v.Notes)
			assert.Equal(t, types.StopAttraction, v.StopType)
			assert.Equal(t, types.PriorityMedium, v.Priority)
			assert.Equal(t, now.Add(time.Hour), v.Arrival)
		})
	}
}

func TestSetOpenKeepsFieldsWhenAlreadyOpen(t *testing.T) {
	f, _ := newForm()
	f.SetOpen(true, nil)
	f.SetName("Landmark 81")

	f.SetOpen(true, &types.LatLng{Lat: 10.7952, Lng: 106.7219})

	v := f.Values()
	assert.Equal(t, "Landmark 81", v.Name)
	assert.Equal(t, "10.795200", v.Latitude)
}

func TestDepartureTracksArrivalAndDuration(t *testing.T) {
	f, _ := newForm()
	f.Open(nil)
	assert.Equal(t, now.Add(60*time.Minute), f.Departure())

	f.SetDuration(135)
	assert.Equal(t, now.Add(135*time.Minute), f.Departure())

	later := now.Add(26 * time.Hour)
	f.SetArrival(later)
	assert.Equal(t, later.Add(135*time.Minute), f.Values().Departure)
}

func TestRequestDepartureIsArrivalPlusDuration(t *testing.T) {
	for _, minutes := range []int{15, 45, 60, 90, 480, 1441} {
		t.Run(strconv.Itoa(minutes), func(t *testing.T) {
			f, _ := newForm()
			fill(f)
			f.SetDuration(minutes)

			req, err := f.Request()
			require.NoError(t, err)
			assert.Equal(t, req.PlannedArrival.Add(time.Duration(req.EstimatedDuration)*time.Minute), req.PlannedDeparture)
		})
	}
}

func TestRequestBuildsPayload(t *testing.T) {
	f, _ := newForm()
	fill(f)
	f.SetDescription("  covered market  ")
	f.SetCost("50000")
	f.SetNotes(" ")

	req, err := f.Request()
	require.NoError(t, err)
	assert.Equal(t, "Ben Thanh Market", req.Name)
	assert.InDelta(t, 10.7721, req.Lat, 1e-9)
	assert.InDelta(t, 106.6980, req.Lng, 1e-9)
	assert.Equal(t, "covered market", req.Description)
	require.NotNil(t, req.Cost)
	assert.Equal(t, 50000.0, *req.Cost)
	assert.Empty(t, req.Notes)
	assert.NoError(t, req.Validate())

	f.SetCost("")
	req, err = f.Request()
	require.NoError(t, err)
	assert.Nil(t, req.Cost)
}

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Form)
		field  Field
	}{
		{"blank name", func(f *Form) { f.SetName("   ") }, FieldName},
		{"empty latitude", func(f *Form) { f.SetLatitude("") }, FieldLatitude},
		{"non numeric latitude", func(f *Form) { f.SetLatitude("north") }, FieldLatitude},
		{"nan latitude", func(f *Form) { f.SetLatitude("NaN") }, FieldLatitude},
		{"latitude out of range", func(f *Form) { f.SetLatitude("91") }, FieldLatitude},
		{"infinite longitude", func(f *Form) { f.SetLongitude("+Inf") }, FieldLongitude},
		{"longitude out of range", func(f *Form) { f.SetLongitude("-181") }, FieldLongitude},
		{"zero duration", func(f *Form) { f.SetDuration(0) }, FieldDuration},
		{"zero arrival", func(f *Form) { f.SetArrival(time.Time{}) }, FieldArrival},
		{"bad cost", func(f *Form) { f.SetCost("cheap") }, FieldCost},
		{"negative cost", func(f *Form) { f.SetCost("-1") }, FieldCost},
		{"unknown stop type", func(f *Form) { f.SetStopType("museum") }, FieldStopType},
		{"unknown priority", func(f *Form) { f.SetPriority("urgent") }, FieldPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newForm()
			fill(f)
			tt.mutate(f)

			_, err := f.Request()
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrInvalidRequest)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields, tt.field)
			assert.Len(t, ve.Fields, 1)
		})
	}
}

func TestSubmitClosesOnSuccess(t *testing.T) {
	f, _ := newForm()
	fill(f)

	var got types.AddStopRequest
	err := f.Submit(context.Background(), func(ctx context.Context, req types.AddStopRequest) error {
		got = req
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Ben Thanh Market", got.Name)

	v := f.Values()
	assert.False(t, v.Open)
	assert.False(t, v.Pending)
	assert.Empty(t, v.Latitude)
}

func TestSubmitKeepsValuesOnFailure(t *testing.T) {
	f, _ := newForm()
	fill(f)

	boom := errors.New("server unavailable")
	err := f.Submit(context.Background(), func(context.Context, types.AddStopRequest) error { return boom })
	assert.ErrorIs(t, err, boom)

	v := f.Values()
	assert.True(t, v.Open)
	assert.False(t, v.Pending)
	assert.Equal(t, "Ben Thanh Market", v.Name)
	assert.Equal(t, "10.772100", v.Latitude)
}

func TestSubmitInvalidNeverCallsFn(t *testing.T) {
	f, _ := newForm()
	f.Open(nil)
	f.SetName("No Coordinates")
	called := false
	err := f.Submit(context.Background(), func(context.Context, types.AddStopRequest) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, types.ErrInvalidRequest)
	assert.False(t, called)
}

func TestSubmitClosedForm(t *testing.T) {
	f, _ := newForm()
	err := f.Submit(context.Background(), func(context.Context, types.AddStopRequest) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSubmitGuardsDoubleSubmit(t *testing.T) {
	f, _ := newForm()
	fill(f)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	fn := func(context.Context, types.AddStopRequest) error {
		mu.Lock()
		calls++
		mu.Unlock()
		close(started)
		<-release
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- f.Submit(context.Background(), fn) }()
	<-started

	assert.True(t, f.Values().Pending)
	err := f.Submit(context.Background(), fn)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, calls)
}

func TestOpenEdit(t *testing.T) {
	f, _ := newForm()
	cost := 25.5
	arrival := now.Add(2 * time.Hour)
	f.OpenEdit(types.Stop{
		ID: 7, Name: "Landmark 81", Lat: 10.7952, Lng: 106.7219,
		PlannedArrival: arrival, EstimatedDuration: 90,
		StopType: types.StopAttraction, Priority: types.PriorityHigh, Cost: &cost,
	})

	v := f.Values()
	assert.Equal(t, int64(7), v.EditingID)
	assert.Equal(t, "10.795200", v.Latitude)
	assert.Equal(t, arrival.Add(90*time.Minute), v.Departure)
	assert.Equal(t, "25.5", v.Cost)

	f.Close()
	assert.Zero(t, f.Values().EditingID)
}

func TestStepAndCycle(t *testing.T) {
	f, _ := newForm()
	f.Open(nil)

	f.StepDuration(-10)
	assert.Equal(t, MinDuration, f.Values().Duration)
	f.StepDuration(100)
	assert.Equal(t, MaxDuration, f.Values().Duration)

	f.CycleStopType(1)
	assert.Equal(t, types.StopFood, f.Values().StopType)
	f.CycleStopType(-2)
	assert.Equal(t, types.StopCustom, f.Values().StopType)

	f.CyclePriority(1)
	assert.Equal(t, types.PriorityHigh, f.Values().Priority)
	f.CyclePriority(1)
	assert.Equal(t, types.PriorityLow, f.Values().Priority)
}

func TestSetArrivalText(t *testing.T) {
	f, _ := newForm()
	f.Open(nil)

	require.NoError(t, f.SetArrivalText("2025-07-24 14:30"))
	want := time.Date(2025, 7, 24, 14, 30, 0, 0, time.Local)
	assert.True(t, want.Equal(f.Values().Arrival))

	err := f.SetArrivalText("tomorrow")
	assert.ErrorIs(t, err, types.ErrInvalidRequest)
	assert.True(t, want.Equal(f.Values().Arrival))
}

func TestOptions(t *testing.T) {
	opts := StopTypeOptions()
	require.Len(t, opts, len(types.StopTypes))
	for i, o := range opts {
		assert.Equal(t, types.StopTypes[i], o.Value)
		assert.NotEmpty(t, o.Label)
		assert.NotEmpty(t, o.Emoji)
	}
	assert.Equal(t, "Restaurant/Food", StopTypeOf(types.StopFood).Label)
	assert.Equal(t, types.StopCustom, StopTypeOf("unknown").Value)

	assert.Len(t, PriorityOptions(), 3)
	assert.Equal(t, "error", PriorityOf(types.PriorityHigh).Tone)
	assert.Equal(t, "1h 30m", FormatDuration(90))
}

func TestSubmitInFlightSurvivesReopen(t *testing.T) {
	f, _ := newForm()
	fill(f)

	started := make(chan struct{})
	release := make(chan struct{})
	fn := func(context.Context, types.AddStopRequest) error {
		close(started)
		<-release
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- f.Submit(context.Background(), fn) }()
	<-started

	f.Close()
	f.Open(&types.LatLng{Lat: 10.7952, Lng: 106.7219})
	f.SetName("Landmark 81")
	assert.True(t, f.Values().Pending)

	err := f.Submit(context.Background(), func(context.Context, types.AddStopRequest) error {
		t.Fatal("second submission must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)

	v := f.Values()
	assert.True(t, v.Open)
	assert.False(t, v.Pending)
	assert.Equal(t, "Landmark 81", v.Name)
	assert.Equal(t, "10.795200", v.Latitude)

	require.NoError(t, f.Submit(context.Background(), func(context.Context, types.AddStopRequest) error { return nil }))
	assert.False(t, f.Values().Open)
}
