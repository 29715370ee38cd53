package geo

import (
	"math/rand/v2"
	"slices"
)

// LocatedEntity pairs an owner (typically a card) with its recorded shop
// locations. A nil and an empty Locations slice both mean "no locations".
type LocatedEntity[T any] struct {
	Owner     T
	Locations []Coordinate
}

// Candidate is one (entity, location) pair with its distance from the user.
type Candidate[T any] struct {
	Entity     T
	Coordinate Coordinate
	DistanceKm float64
}

// Selection is the outcome of a nearest or random pick.
// Coordinate is nil when the entity was picked at random.
type Selection[T any] struct {
	Entity     T
	Coordinate *Coordinate
	DistanceKm float64
	Fallback   bool
}

// Picker returns a uniformly distributed index in [0, n).
type Picker func(n int) int

// DefaultPicker draws from math/rand/v2.
func DefaultPicker(n int) int {
	return rand.IntN(n)
}

// RankByDistance flattens every valid (entity, location) pair and sorts them
// by ascending distance from user. The sort is stable, so pairs at equal
// distance keep input order.
func RankByDistance[T any](user Coordinate, entities []LocatedEntity[T]) []Candidate[T] {
	var candidates []Candidate[T]
	for _, e := range entities {
		for _, loc := range e.Locations {
			if !IsValidLocation(loc) {
				continue
			}
			candidates = append(candidates, Candidate[T]{
				Entity:     e.Owner,
				Coordinate: loc,
				DistanceKm: user.DistanceTo(loc),
			})
		}
	}

	slices.SortStableFunc(candidates, func(a, b Candidate[T]) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		default:
			return 0
		}
	})
	return candidates
}

// SelectNearest picks the entity with the location closest to user.
// It returns false only when entities is empty. Locations that fail
// IsValidLocation, including the unset pair (0, 0), are skipped, so an
// entity whose locations are all unset never wins on distance. When no
// entity has a usable location a random entity is returned with Fallback set.
func SelectNearest[T any](user Coordinate, entities []LocatedEntity[T]) (Selection[T], bool) {
	return SelectNearestWith(DefaultPicker, user, entities)
}

// SelectNearestWith is SelectNearest with an explicit random source for the fallback.
func SelectNearestWith[T any](pick Picker, user Coordinate, entities []LocatedEntity[T]) (Selection[T], bool) {
	if len(entities) == 0 {
		return Selection[T]{}, false
	}

	ranked := RankByDistance(user, entities)
	if len(ranked) == 0 {
		return SelectRandom(pick, entities)
	}

	best := ranked[0]
	loc := best.Coordinate
	return Selection[T]{
		Entity:     best.Entity,
		Coordinate: &loc,
		DistanceKm: best.DistanceKm,
	}, true
}

// SelectRandom picks a uniformly random entity, ignoring locations.
// Used when the user's position is unknown.
func SelectRandom[T any](pick Picker, entities []LocatedEntity[T]) (Selection[T], bool) {
	if len(entities) == 0 {
		return Selection[T]{}, false
	}
	if pick == nil {
		pick = DefaultPicker
	}
	return Selection[T]{
		Entity:   entities[pick(len(entities))].Owner,
		Fallback: true,
	}, true
}
