package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardwallet/backend/pkg/geo"
)

func lastIndex(n int) int { return n - 1 }

func TestSelectNearest_EmptyReturnsNothing(t *testing.T) {
	_, ok := geo.SelectNearest[string](berlin, nil)
	assert.False(t, ok)

	_, ok = geo.SelectNearest(berlin, []geo.LocatedEntity[string]{})
	assert.False(t, ok)
}

func TestSelectNearest_NearestWins(t *testing.T) {
	entities := []geo.LocatedEntity[string]{
		{Owner: "far", Locations: []geo.Coordinate{newYork}},
		{Owner: "near", Locations: []geo.Coordinate{losAngeles, {Lat: 52.521, Lng: 13.406}}},
		{Owner: "none"},
	}

	sel, ok := geo.SelectNearest(berlin, entities)
	require.True(t, ok)
	assert.Equal(t, "near", sel.Entity)
	assert.False(t, sel.Fallback)
	require.NotNil(t, sel.Coordinate)
	assert.Equal(t, geo.Coordinate{Lat: 52.521, Lng: 13.406}, *sel.Coordinate)
	assert.Less(t, sel.DistanceKm, 1.0)
}

func TestSelectNearest_TiesKeepInputOrder(t *testing.T) {
	entities := []geo.LocatedEntity[string]{
		{Owner: "first", Locations: []geo.Coordinate{shopA}},
		{Owner: "second", Locations: []geo.Coordinate{shopA}},
	}

	sel, ok := geo.SelectNearest(berlin, entities)
	require.True(t, ok)
	assert.Equal(t, "first", sel.Entity)
}

func TestSelectNearest_NoLocationsFallsBackToRandom(t *testing.T) {
	entities := []geo.LocatedEntity[string]{
		{Owner: "a"},
		{Owner: "b", Locations: []geo.Coordinate{}},
		{Owner: "c", Locations: []geo.Coordinate{{Lat: 0, Lng: 0}}},
	}

	sel, ok := geo.SelectNearestWith(lastIndex, berlin, entities)
	require.True(t, ok)
	assert.Equal(t, "c", sel.Entity)
	assert.True(t, sel.Fallback)
	assert.Nil(t, sel.Coordinate)

	for i := 0; i < 20; i++ {
		sel, ok := geo.SelectNearest(berlin, entities)
		require.True(t, ok)
		assert.Contains(t, []string{"a", "b", "c"}, sel.Entity)
		assert.True(t, sel.Fallback)
	}
}

func TestSelectRandom(t *testing.T) {
	entities := []geo.LocatedEntity[int]{{Owner: 1}, {Owner: 2}, {Owner: 3}}

	sel, ok := geo.SelectRandom(func(int) int { return 1 }, entities)
	require.True(t, ok)
	assert.Equal(t, 2, sel.Entity)
	assert.True(t, sel.Fallback)

	sel, ok = geo.SelectRandom(nil, entities)
	require.True(t, ok)
	assert.Contains(t, []int{1, 2, 3}, sel.Entity)

	_, ok = geo.SelectRandom[int](nil, nil)
	assert.False(t, ok)
}

func TestRankByDistance(t *testing.T) {
	entities := []geo.LocatedEntity[string]{
		{Owner: "us", Locations: []geo.Coordinate{losAngeles, newYork}},
		{Owner: "de", Locations: []geo.Coordinate{shopB, {}}},
	}

	ranked := geo.RankByDistance(berlin, entities)
	require.Len(t, ranked, 3)
	assert.Equal(t, "de", ranked[0].Entity)
	assert.Equal(t, newYork, ranked[1].Coordinate)
	assert.Equal(t, losAngeles, ranked[2].Coordinate)
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].DistanceKm, ranked[i].DistanceKm)
	}
}
