package stopform

import "github.com/harrysoftwarecorp/route-nest/pkg/types"

// StopTypeOption is one entry of the stop type picker.
type StopTypeOption struct {
	Value types.StopType
	Label string
	Emoji string
}

var stopTypeOptions = []StopTypeOption{
	{types.StopAttraction, "Tourist Attraction", "🏛️"},
	{types.StopFood, "Restaurant/Food", "🍜"},
	{types.StopAccommodation, "Hotel/Stay", "🏨"},
	{types.StopTransport, "Transport Hub", "🚌"},
	{types.StopShopping, "Shopping", "🛍️"},
	{types.StopNature, "Nature/Park", "🌳"},
	{types.StopCulture, "Cultural Site", "🎭"},
	{types.StopActivity, "Activity/Sport", "🎯"},
	{types.StopRest, "Rest Stop", "☕"},
	{types.StopCustom, "Custom", "📍"},
}

// StopTypeOptions returns the picker entries in display order.
func StopTypeOptions() []StopTypeOption {
	out := make([]StopTypeOption, len(stopTypeOptions))
	copy(out, stopTypeOptions)
	return out
}

// StopTypeOf returns the picker entry for t, falling back to custom.
func StopTypeOf(t types.StopType) StopTypeOption {
	for _, o := range stopTypeOptions {
		if o.Value == t {
			return o
		}
	}
	return stopTypeOptions[len(stopTypeOptions)-1]
}

// PriorityOption is one entry of the priority picker. Tone is a semantic
// color name the renderer maps onto its palette.
type PriorityOption struct {
	Value types.Priority
	Label string
	Tone  string
}

var priorityOptions = []PriorityOption{
	{types.PriorityLow, "Low Priority", "success"},
	{types.PriorityMedium, "Medium Priority", "warning"},
	{types.PriorityHigh, "High Priority", "error"},
}

// PriorityOptions returns the picker entries from low to high.
func PriorityOptions() []PriorityOption {
	out := make([]PriorityOption, len(priorityOptions))
	copy(out, priorityOptions)
	return out
}

// PriorityOf returns the picker entry for p, falling back to medium.
func PriorityOf(p types.Priority) PriorityOption {
	for _, o := range priorityOptions {
		if o.Value == p {
			return o
		}
	}
	return priorityOptions[1]
}

// cycle returns the element after (or before, for negative step) cur in
// values, wrapping at both ends.
func cycle[T comparable](values []T, cur T, step int) T {
	idx := 0
	for i, v := range values {
		if v == cur {
			idx = i
			break
		}
	}
	n := len(values)
	return values[((idx+step)%n+n)%n]
}

// FormatDuration renders the stop duration the way the slider labels it.
func FormatDuration(minutes int) string {
	return types.FormatMinutes(minutes)
}
