package allocation

import "math"

// UnboundedAllowance is the effective per-vendor limit used when a deal sets
// none. An explicit zero is a real limit and blocks every commitment.
const UnboundedAllowance = math.MaxInt32

// Limit is an optional per-vendor quantity cap.
type Limit struct {
	value   int
	bounded bool
}

// Unbounded returns a limit that never caps quantity in practice.
func Unbounded() Limit {
	return Limit{}
}

// LimitOf returns a bounded limit of n units.
func LimitOf(n int) Limit {
	return Limit{value: n, bounded: true}
}

// LimitFromPtr maps a nullable column to a Limit. nil means unbounded.
func LimitFromPtr(n *int) Limit {
	if n == nil {
		return Unbounded()
	}
	return LimitOf(*n)
}

// IsBounded reports whether a cap was set.
func (l Limit) IsBounded() bool {
	return l.bounded
}

// Effective returns the numeric cap used in allowance math.
func (l Limit) Effective() int {
	if !l.bounded {
		return UnboundedAllowance
	}
	return l.value
}

// Ptr returns the cap for serialization, nil when unbounded.
func (l Limit) Ptr() *int {
	if !l.bounded {
		return nil
	}
	v := l.value
	return &v
}
