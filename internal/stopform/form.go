// Package stopform holds the editable state of the add/edit stop dialog.
//
// A Form owns the field values of one stop. It derives the departure time
// from the arrival and the duration, validates everything into an
// AddStopRequest and hands that to a caller-supplied submit function. The
// caller owns the network call. Closing the form, by any path, resets every
// field to its default.
package stopform

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/harrysoftwarecorp/route-nest/internal/clock"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// Defaults applied on open and close.
const (
	DefaultStopType = types.StopAttraction
	DefaultPriority = types.PriorityMedium
	DefaultDuration = 60
)

// Duration slider bounds, in minutes.
const (
	MinDuration  = 15
	MaxDuration  = 480
	DurationStep = 15
)

// CoordinatePrecision is the number of decimals used for prefilled
// coordinates.
const CoordinatePrecision = 6

// ArrivalLayout is the text layout accepted by SetArrivalText.
const ArrivalLayout = "2006-01-02 15:04"

// Errors returned by Submit.
var (
	ErrSubmitInFlight = errors.New("stop submission already in progress")
	ErrClosed         = errors.New("stop form is not open")
)

// Field names a form input.
type Field string

// Form fields.
const (
	FieldName      Field = "name"
	FieldLatitude  Field = "latitude"
	FieldLongitude Field = "longitude"
	FieldArrival   Field = "arrival"
	FieldDuration  Field = "duration"
	FieldStopType  Field = "stopType"
	FieldPriority  Field = "priority"
	FieldCost      Field = "cost"
)

// ValidationError lists the fields that failed validation. It matches
// types.ErrInvalidRequest under errors.Is.
type ValidationError struct {
	Fields map[Field]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "invalid stop: " + strings.Join(parts, "; ")
}

// Is reports whether target is types.ErrInvalidRequest.
func (e *ValidationError) Is(target error) bool {
	return target == types.ErrInvalidRequest
}

// Values is a snapshot of the form.
type Values struct {
	Open    bool
	Pending bool
	// EditingID is the stop being edited, or 0 when adding.
	EditingID int64

	Name        string
	Description string
	Latitude    string
	Longitude   string
	Arrival     time.Time
	Departure   time.Time
	Duration    int
	StopType    types.StopType
	Priority    types.Priority
	Cost        string
	Notes       string
}

// Options configures a Form.
type Options struct {
	// Clock supplies the default arrival time. Nil means the system clock.
	Clock clock.Clock
}

// Form is safe for concurrent use.
type Form struct {
	mu    sync.Mutex
	clock clock.Clock
	v     Values
	// submitting is set while a SubmitFunc runs. reset keeps it.
	submitting bool
	// gen counts resets. A submission only closes the form it was made from.
	gen uint64
}

// New returns a closed form holding the defaults.
func New(opts Options) *Form {
	f := &Form{clock: clock.Or(opts.Clock)}
	f.reset()
	return f
}

// reset restores every transient field. The caller holds mu.
func (f *Form) reset() {
	f.gen++
	f.v = Values{
		Pending:  f.submitting,
		Arrival:  f.clock.Now(),
		Duration: DefaultDuration,
		StopType: DefaultStopType,
		Priority: DefaultPriority,
	}
}

// FormatCoordinate renders a coordinate the way prefilled fields show it.
func FormatCoordinate(x float64) string {
	return strconv.FormatFloat(x, 'f', CoordinatePrecision, 64)
}

// Open resets the form and opens it, prefilling the coordinates when
// prefill is non-nil.
func (f *Form) Open(prefill *types.LatLng) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
	f.v.Open = true
	f.prefill(prefill)
}

func (f *Form) prefill(p *types.LatLng) {
	if p == nil {
		return
	}
	f.v.Latitude = FormatCoordinate(p.Lat)
	f.v.Longitude = FormatCoordinate(p.Lng)
}

// OpenEdit opens the form filled from an existing stop.
func (f *Form) OpenEdit(s types.Stop) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
	f.v.Open = true
	f.v.EditingID = s.ID
	f.v.Name = s.Name
	f.v.Description = s.Description
	f.v.Latitude = FormatCoordinate(s.Lat)
	f.v.Longitude = FormatCoordinate(s.Lng)
	if !s.PlannedArrival.IsZero() {
		f.v.Arrival = s.PlannedArrival
	}
	if s.EstimatedDuration > 0 {
		f.v.Duration = s.EstimatedDuration
	}
	if s.StopType.Valid() {
		f.v.StopType = s.StopType
	}
	if s.Priority.Valid() {
		f.v.Priority = s.Priority
	}
	if s.Cost != nil {
		f.v.Cost = strconv.FormatFloat(*s.Cost, 'f', -1, 64)
	}
	f.v.Notes = s.Notes
}

// Close resets every field to its default and closes the form. It resets
// even when the form is already closed.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
}

// SetOpen drives the form from an open flag. Opening a closed form resets it;
// a new prefill on an open form only replaces the coordinates. Any transition
// to closed resets.
func (f *Form) SetOpen(open bool, prefill *types.LatLng) {
	if !open {
		f.Close()
		return
	}
	f.mu.Lock()
	already := f.v.Open
	if already {
		f.prefill(prefill)
	}
	f.mu.Unlock()
	if !already {
		f.Open(prefill)
	}
}

// IsOpen reports whether the form is open.
func (f *Form) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.v.Open
}

func (f *Form) set(fn func(v *Values)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.v)
}

// SetName sets the stop name.
func (f *Form) SetName(s string) { f.set(func(v *Values) { v.Name = s }) }

// SetDescription sets the optional description.
func (f *Form) SetDescription(s string) { f.set(func(v *Values) { v.Description = s }) }

// SetLatitude sets the latitude text. It is parsed on Request.
func (f *Form) SetLatitude(s string) { f.set(func(v *Values) { v.Latitude = s }) }

// SetLongitude sets the longitude text. It is parsed on Request.
func (f *Form) SetLongitude(s string) { f.set(func(v *Values) { v.Longitude = s }) }

// SetArrival sets the planned arrival.
func (f *Form) SetArrival(t time.Time) { f.set(func(v *Values) { v.Arrival = t }) }

// SetArrivalText parses s with ArrivalLayout in the local zone. The previous
// arrival is kept on error.
func (f *Form) SetArrivalText(s string) error {
	t, err := time.ParseInLocation(ArrivalLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return &ValidationError{Fields: map[Field]string{FieldArrival: "use YYYY-MM-DD HH:MM"}}
	}
	f.SetArrival(t)
	return nil
}

// SetDuration sets the estimated duration in minutes.
func (f *Form) SetDuration(minutes int) { f.set(func(v *Values) { v.Duration = minutes }) }

// StepDuration moves the duration by steps slider increments, clamped to
// the slider range.
func (f *Form) StepDuration(steps int) {
	f.set(func(v *Values) {
		v.Duration = min(max(v.Duration+steps*DurationStep, MinDuration), MaxDuration)
	})
}

// SetStopType sets the classification.
func (f *Form) SetStopType(t types.StopType) { f.set(func(v *Values) { v.StopType = t }) }

// CycleStopType moves through the stop type options.
func (f *Form) CycleStopType(step int) {
	f.set(func(v *Values) { v.StopType = cycle(types.StopTypes, v.StopType, step) })
}

// SetPriority sets the priority.
func (f *Form) SetPriority(p types.Priority) { f.set(func(v *Values) { v.Priority = p }) }

// CyclePriority moves through the priorities.
func (f *Form) CyclePriority(step int) {
	f.set(func(v *Values) { v.Priority = cycle(types.Priorities, v.Priority, step) })
}

// SetCost sets the cost text. Empty means no cost.
func (f *Form) SetCost(s string) { f.set(func(v *Values) { v.Cost = s }) }

// SetNotes sets the notes.
func (f *Form) SetNotes(s string) { f.set(func(v *Values) { v.Notes = s }) }

// Departure returns arrival plus duration.
func (f *Form) Departure() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return departure(f.v)
}

func departure(v Values) time.Time {
	return v.Arrival.Add(time.Duration(v.Duration) * time.Minute)
}

// Values returns a snapshot of the form, with Departure derived.
func (f *Form) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.v
	v.Departure = departure(v)
	return v
}

// Request validates the fields into an AddStopRequest.
func (f *Form) Request() (types.AddStopRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return build(f.v)
}

func parseFloat(s string) (float64, bool) {
	x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

func build(v Values) (types.AddStopRequest, error) {
	fields := map[Field]string{}

	name := strings.TrimSpace(v.Name)
	if name == "" {
		fields[FieldName] = "required"
	}
	lat, ok := parseFloat(v.Latitude)
	switch {
	case strings.TrimSpace(v.Latitude) == "":
		fields[FieldLatitude] = "required"
	case !ok:
		fields[FieldLatitude] = "not a number"
	case lat < -90 || lat > 90:
		fields[FieldLatitude] = "must be between -90 and 90"
	}
	lng, ok := parseFloat(v.Longitude)
	switch {
	case strings.TrimSpace(v.Longitude) == "":
		fields[FieldLongitude] = "required"
	case !ok:
		fields[FieldLongitude] = "not a number"
	case lng < -180 || lng > 180:
		fields[FieldLongitude] = "must be between -180 and 180"
	}
	if v.Arrival.IsZero() {
		fields[FieldArrival] = "required"
	}
	if v.Duration <= 0 {
		fields[FieldDuration] = "must be positive"
	}
	if !v.StopType.Valid() {
		fields[FieldStopType] = "unknown stop type"
	}
	if !v.Priority.Valid() {
		fields[FieldPriority] = "unknown priority"
	}
	var cost *float64
	if c := strings.TrimSpace(v.Cost); c != "" {
		x, ok := parseFloat(c)
		switch {
		case !ok:
			fields[FieldCost] = "not a number"
		case x < 0:
			fields[FieldCost] = "must not be negative"
		default:
			cost = &x
		}
	}
	if len(fields) > 0 {
		return types.AddStopRequest{}, &ValidationError{Fields: fields}
	}

	return types.AddStopRequest{
		Name:              name,
		Lat:               lat,
		Lng:               lng,
		PlannedArrival:    v.Arrival,
		PlannedDeparture:  departure(v),
		EstimatedDuration: v.Duration,
		StopType:          v.StopType,
		Priority:          v.Priority,
		Description:       strings.TrimSpace(v.Description),
		Cost:              cost,
		Notes:             strings.TrimSpace(v.Notes),
	}, nil
}

// SubmitFunc performs the network call for a validated request.
type SubmitFunc func(ctx context.Context, req types.AddStopRequest) error

// Submit validates the form and calls fn. Only one submission runs at a
// time, even across Close and Open; a second call while fn is running
// returns ErrSubmitInFlight. The form closes when fn succeeds and keeps its
// values when fn fails. A form closed or reopened while fn runs is left as
// it is.
func (f *Form) Submit(ctx context.Context, fn SubmitFunc) error {
	f.mu.Lock()
	if !f.v.Open {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	req, err := build(f.v)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	f.submitting = true
	f.v.Pending = true
	gen := f.gen
	f.mu.Unlock()

	err = fn(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	f.v.Pending = false
	if err == nil && gen == f.gen {
		f.reset()
	}
	return err
}
