package machine

import "golang.org/x/exp/constraints"

// clampMin returns v if it is at least floor, else floor. Used for the two
// places this package enforces a minimum size instead of hand-rolling the
// comparison twice: Table's initial capacity and the GC's next-collection
// threshold.
func clampMin[T constraints.Ordered](v, floor T) T {
	if v < floor {
		return floor
	}
	return v
}
