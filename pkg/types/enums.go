package types

// StopType classifies what a stop is.
type StopType string

// Stop types.
const (
	StopAttraction    StopType = "attraction"
	StopFood          StopType = "food"
	StopAccommodation StopType = "accommodation"
	StopTransport     StopType = "transport"
	StopShopping      StopType = "shopping"
	StopNature        StopType = "nature"
	StopCulture       StopType = "culture"
	StopActivity      StopType = "activity"
	StopRest          StopType = "rest"
	StopCustom        StopType = "custom"
)

// StopTypes lists every stop type in display order.
var StopTypes = []StopType{
	StopAttraction, StopFood, StopAccommodation, StopTransport, StopShopping,
	StopNature, StopCulture, StopActivity, StopRest, StopCustom,
}

// validStopTypes is the set of recognized stop types.
var validStopTypes = setOf(StopTypes...)

// Valid reports whether t is a recognized stop type.
func (t StopType) Valid() bool { return validStopTypes[t] }

// Priority says how important a stop is within its trip.
type Priority string

// Priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

var validPriorities = setOf(Priorities...)

// Valid reports whether p is a recognized priority.
func (p Priority) Valid() bool { return validPriorities[p] }

// TripCategory groups trips for browsing and search.
type TripCategory string

// Trip categories.
const (
	CategoryCultural        TripCategory = "cultural"
	CategoryAdventure       TripCategory = "adventure"
	CategoryFoodTour        TripCategory = "food_tour"
	CategoryNature          TripCategory = "nature"
	CategoryCityExploration TripCategory = "city_exploration"
	CategoryRoadTrip        TripCategory = "road_trip"
	CategoryMotorcycleTour  TripCategory = "motorcycle_tour"
	CategoryWalkingTour     TripCategory = "walking_tour"
	CategoryBusiness        TripCategory = "business"
	CategoryCustom          TripCategory = "custom"
)

// TripCategories lists every trip category.
var TripCategories = []TripCategory{
	CategoryCultural, CategoryAdventure, CategoryFoodTour, CategoryNature,
	CategoryCityExploration, CategoryRoadTrip, CategoryMotorcycleTour,
	CategoryWalkingTour, CategoryBusiness, CategoryCustom,
}

var validCategories = setOf(TripCategories...)

// Valid reports whether c is a recognized trip category.
func (c TripCategory) Valid() bool { return validCategories[c] }

// TransportMode is how a route segment is travelled.
type TransportMode string

// Transport modes.
const (
	ModeWalking         TransportMode = "walking"
	ModeCycling         TransportMode = "cycling"
	ModeMotorcycle      TransportMode = "motorcycle"
	ModeCar             TransportMode = "car"
	ModePublicTransport TransportMode = "public_transport"
	ModeBoat            TransportMode = "boat"
	ModeFlight          TransportMode = "flight"
)

// TransportModes lists every transport mode.
var TransportModes = []TransportMode{
	ModeWalking, ModeCycling, ModeMotorcycle, ModeCar, ModePublicTransport,
	ModeBoat, ModeFlight,
}

var validModes = setOf(TransportModes...)

// Valid reports whether m is a recognized transport mode.
func (m TransportMode) Valid() bool { return validModes[m] }

// Visibility controls who can see a trip.
type Visibility string

// Visibility values.
const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
	VisibilityShared  Visibility = "shared"
)

var validVisibilities = setOf(VisibilityPrivate, VisibilityPublic, VisibilityShared)

// Valid reports whether v is a recognized visibility.
func (v Visibility) Valid() bool { return validVisibilities[v] }

// Difficulty is the derived effort level of a trip.
type Difficulty string

// Difficulty levels.
const (
	DifficultyEasy        Difficulty = "easy"
	DifficultyModerate    Difficulty = "moderate"
	DifficultyChallenging Difficulty = "challenging"
)

func setOf[T comparable](values ...T) map[T]bool {
	m := make(map[T]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
