package geo

// DefaultDuplicateThresholdMeters is the radius under which two saved shop
// locations are considered the same place.
const DefaultDuplicateThresholdMeters = 100.0

type duplicateOptions struct {
	thresholdMeters float64
}

// DuplicateOption tunes duplicate detection.
type DuplicateOption func(*duplicateOptions)

// WithThresholdMeters overrides DefaultDuplicateThresholdMeters.
func WithThresholdMeters(m float64) DuplicateOption {
	return func(o *duplicateOptions) {
		o.thresholdMeters = m
	}
}

func buildDuplicateOptions(opts []DuplicateOption) duplicateOptions {
	o := duplicateOptions{thresholdMeters: DefaultDuplicateThresholdMeters}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IsDuplicate reports whether candidate lies strictly closer than the
// threshold to existing. A pair exactly at the threshold is not a duplicate.
func IsDuplicate(candidate, existing Coordinate, opts ...DuplicateOption) bool {
	o := buildDuplicateOptions(opts)
	return DistanceMeters(candidate, existing) < o.thresholdMeters
}

// ContainsDuplicate reports whether any of existing is a duplicate of candidate.
func ContainsDuplicate(candidate Coordinate, existing []Coordinate, opts ...DuplicateOption) bool {
	for _, e := range existing {
		if IsDuplicate(candidate, e, opts...) {
			return true
		}
	}
	return false
}

// AppendUnique appends candidate to existing unless it is invalid or a
// duplicate of a location already present. The second result reports
// whether candidate was appended. existing is never modified in place.
func AppendUnique(existing []Coordinate, candidate Coordinate, opts ...DuplicateOption) ([]Coordinate, bool) {
	if !IsValidLocation(candidate) || ContainsDuplicate(candidate, existing, opts...) {
		return existing, false
	}
	out := make([]Coordinate, 0, len(existing)+1)
	out = append(out, existing...)
	return append(out, candidate), true
}
