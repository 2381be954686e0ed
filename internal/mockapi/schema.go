package mockapi

// Schema DDL for every table.
const (
	createTrips = `CREATE TABLE IF NOT EXISTS trips (
    trip_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    user_id TEXT NOT NULL,
    category TEXT NOT NULL,
    visibility TEXT NOT NULL,
    is_public INTEGER NOT NULL DEFAULT 0,
    is_template INTEGER NOT NULL DEFAULT 0,
    estimated_duration INTEGER NOT NULL DEFAULT 0,
    tags TEXT NOT NULL DEFAULT '[]',
    shared_with TEXT NOT NULL DEFAULT '[]',
    start_date TEXT,
    end_date TEXT,
    stats TEXT NOT NULL DEFAULT '{}',
    rating REAL,
    review_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createStops = `CREATE TABLE IF NOT EXISTS stops (
    stop_id INTEGER PRIMARY KEY AUTOINCREMENT,
    trip_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    lat REAL NOT NULL,
    lng REAL NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    place_id TEXT NOT NULL DEFAULT '',
    planned_arrival TEXT NOT NULL,
    planned_departure TEXT,
    estimated_duration INTEGER NOT NULL,
    actual_arrival TEXT,
    actual_departure TEXT,
    stop_type TEXT NOT NULL,
    priority TEXT NOT NULL,
    cost REAL,
    notes TEXT NOT NULL DEFAULT '',
    photos TEXT NOT NULL DEFAULT '[]',
    sort_order INTEGER NOT NULL,
    is_completed INTEGER NOT NULL DEFAULT 0,
    is_skipped INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (trip_id) REFERENCES trips(trip_id) ON DELETE CASCADE
);`

	createRoutes = `CREATE TABLE IF NOT EXISTS routes (
    route_id TEXT PRIMARY KEY,
    trip_id TEXT NOT NULL,
    from_stop_id INTEGER NOT NULL,
    to_stop_id INTEGER NOT NULL,
    geometry TEXT NOT NULL,
    distance REAL NOT NULL,
    estimated_duration REAL NOT NULL,
    transport_mode TEXT NOT NULL,
    instructions TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL,
    FOREIGN KEY (trip_id) REFERENCES trips(trip_id) ON DELETE CASCADE
);`

	createShares = `CREATE TABLE IF NOT EXISTS shares (
    token TEXT PRIMARY KEY,
    trip_id TEXT NOT NULL,
    expires_at TEXT NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (trip_id) REFERENCES trips(trip_id) ON DELETE CASCADE
);`

	createItineraries = `CREATE TABLE IF NOT EXISTS itineraries (
    itinerary_id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    trip_ids TEXT NOT NULL DEFAULT '[]',
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    total_duration INTEGER NOT NULL DEFAULT 0,
    is_active INTEGER NOT NULL DEFAULT 0,
    is_public INTEGER NOT NULL DEFAULT 0,
    tags TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxStopsTrip     = `CREATE INDEX IF NOT EXISTS idx_stops_trip ON stops(trip_id, sort_order);`
	idxRoutesTrip    = `CREATE INDEX IF NOT EXISTS idx_routes_trip ON routes(trip_id);`
	idxSharesTrip    = `CREATE INDEX IF NOT EXISTS idx_shares_trip ON shares(trip_id);`
	idxTripsCreated  = `CREATE INDEX IF NOT EXISTS idx_trips_created ON trips(created_at);`
	idxTripsCategory = `CREATE INDEX IF NOT EXISTS idx_trips_category ON trips(category);`
)

// schemaDDL lists every CREATE TABLE statement in dependency order.
var schemaDDL = []string{
	createTrips,
	createStops,
	createRoutes,
	createShares,
	createItineraries,
}

// indexDDL lists every CREATE INDEX statement.
var indexDDL = []string{
	idxStopsTrip,
	idxRoutesTrip,
	idxSharesTrip,
	idxTripsCreated,
	idxTripsCategory,
}
