package domain

// Represents a single position in a planned route.
// A RouteStop is derived from the ordered route and carries the distance from
// the preceding stop (0 for the depot) and the cumulative distance from the depot.
type RouteStop struct {
	Location
	Step               int
	DistanceFromLastKm float64
	CumulativeKm       float64
}

// Represents the outcome of one planning request.
// A PlanningResult is constructed once, never mutated, and only lives for the
// duration of the HTTP exchange.
type PlanningResult struct {
	Branch            string
	Depot             Location
	Stops             []RouteStop
	TotalDistanceKm   float64
	ClientCount       int
	Polyline          []Coordinates
	DataSource        string
	RoadSnapped       bool
	EstimatedFuelCost float64
}
