package dto

import "field-route-service/internal/domain"

type RouteStopResponse struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Type                 string  `json:"type"`
	Lat                  float64 `json:"lat"`
	Lon                  float64 `json:"lon"`
	Step                 int     `json:"step"`
	DistanceFromLast     float64 `json:"distance_from_last"`
	CumulativeDistanceKm float64 `json:"cumulative_distance_km"`
}

type PlanRouteResponse struct {
	Branch            string              `json:"branch"`
	OptimizedRoute    []RouteStopResponse `json:"optimized_route"`
	TotalDistanceKm   float64             `json:"total_distance_km"`
	ClientCount       int                 `json:"client_count"`
	Polyline          [][2]float64        `json:"polyline"`
	DataSource        string              `json:"data_source"`
	RoadSnapped       bool                `json:"road_snapped"`
	EstimatedFuelCost float64             `json:"estimated_fuel_cost"`
}

// NewPlanRouteResponse maps a planning result onto the wire format.
// Polyline points are [lat, lon].
func NewPlanRouteResponse(res *domain.PlanningResult) PlanRouteResponse {
	out := PlanRouteResponse{
		Branch:            res.Branch,
		OptimizedRoute:    make([]RouteStopResponse, 0, len(res.Stops)),
		TotalDistanceKm:   res.TotalDistanceKm,
		ClientCount:       res.ClientCount,
		Polyline:          make([][2]float64, 0, len(res.Polyline)),
		DataSource:        res.DataSource,
		RoadSnapped:       res.RoadSnapped,
		EstimatedFuelCost: res.EstimatedFuelCost,
	}

	for _, s := range res.Stops {
		out.OptimizedRoute = append(out.OptimizedRoute, RouteStopResponse{
			ID:                   s.ID,
			Name:                 s.Name,
			Type:                 string(s.Kind),
			Lat:                  s.Lat,
			Lon:                  s.Lon,
			Step:                 s.Step,
			DistanceFromLast:     s.DistanceFromLastKm,
			CumulativeDistanceKm: s.CumulativeKm,
		})
	}
	for _, p := range res.Polyline {
		out.Polyline = append(out.Polyline, p.LatLon())
	}

	return out
}
