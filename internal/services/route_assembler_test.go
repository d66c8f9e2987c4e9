package services

import (
	"context"
	"errors"
	"field-route-service/internal/adapters/distance"
	"field-route-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleRouteTotalsMatchLegs(t *testing.T) {
	m := planarMatrix([][2]float64{{0, 0}, {1.23456, 0}, {1.23456, 2.000049}, {5, 5}})
	order := []int{0, 1, 2, 3}

	res := AssembleRoute("087", m, order, nil)

	require.Len(t, res.Stops, 4)
	assert.Equal(t, "depot", res.Stops[0].ID)
	assert.Equal(t, 1, res.Stops[0].Step)
	assert.Zero(t, res.Stops[0].DistanceFromLastKm)
	assert.Equal(t, 3, res.ClientCount)

	sum := 0.0
	for i, s := range res.Stops {
		sum += s.DistanceFromLastKm
		assert.InDelta(t, sum, s.CumulativeKm, 1e-9)
		assert.Equal(t, i+1, s.Step)
	}
	assert.InDelta(t, sum, res.TotalDistanceKm, 1e-9)
	assert.Equal(t, 1.235, res.Stops[1].DistanceFromLastKm)
	assert.Equal(t, 2.0, res.Stops[2].DistanceFromLastKm)

	// Straight polyline through the stops.
	assert.Len(t, res.Polyline, 4)
	assert.False(t, res.RoadSnapped)
}

func TestAssembleRouteDepotOnly(t *testing.T) {
	m := GreatCircleMatrix([]domain.Location{testDepot})

	res := AssembleRoute("087", m, []int{0}, nil)
	require.Len(t, res.Stops, 1)
	assert.Zero(t, res.TotalDistanceKm)
	assert.Zero(t, res.ClientCount)
	assert.Equal(t, []domain.Coordinates{testDepot.Coordinates}, res.Polyline)
}

func TestAssembleRouteConcatenatesLegGeometry(t *testing.T) {
	points := []domain.Location{testDepot, client("c1", 23.20, 85.31), client("c2", 23.25, 85.36)}
	m := GreatCircleMatrix(points)
	mid1 := domain.Coordinates{Lat: 23.19, Lon: 85.30}
	mid2 := domain.Coordinates{Lat: 23.22, Lon: 85.34}

	legs := [][]domain.Coordinates{
		{points[0].Coordinates, mid1, points[1].Coordinates},
		{points[1].Coordinates, mid2, points[2].Coordinates},
	}

	res := AssembleRoute("087", m, []int{0, 1, 2}, legs)
	assert.True(t, res.RoadSnapped)
	assert.Equal(t, []domain.Coordinates{
		points[0].Coordinates, mid1, points[1].Coordinates, mid2, points[2].Coordinates,
	}, res.Polyline)

	// A missing leg is drawn straight.
	legs[1] = nil
	res = AssembleRoute("087", m, []int{0, 1, 2}, legs)
	assert.False(t, res.RoadSnapped)
	assert.Equal(t, []domain.Coordinates{
		points[0].Coordinates, mid1, points[1].Coordinates, points[2].Coordinates,
	}, res.Polyline)
}

func TestFetchLegGeometry(t *testing.T) {
	stops := []domain.Location{testDepot, client("c1", 23.20, 85.31), client("c2", 23.25, 85.36)}
	router := &distance.MockRoadRouter{}

	legs := FetchLegGeometry(context.Background(), router, stops, 2, time.Second)
	require.Len(t, legs, 2)
	assert.Equal(t, []domain.Coordinates{stops[1].Coordinates, stops[2].Coordinates}, legs[1])
	assert.EqualValues(t, 2, router.Calls())

	failing := &distance.MockRoadRouter{Err: errors.New("no route")}
	legs = FetchLegGeometry(context.Background(), failing, stops, 2, time.Second)
	require.Len(t, legs, 2)
	assert.Nil(t, legs[0])
	assert.Nil(t, legs[1])

	assert.Nil(t, FetchLegGeometry(context.Background(), nil, stops, 2, time.Second))
	assert.Nil(t, FetchLegGeometry(context.Background(), router, stops[:1], 2, time.Second))
}

func TestEstimateFuelCost(t *testing.T) {
	assert.Equal(t, 69.0, EstimateFuelCost(12.5, 5.5))
	assert.Zero(t, EstimateFuelCost(0, 5.5))
}
