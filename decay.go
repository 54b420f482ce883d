package breath

// decay relaxes a stored extremum toward the running one. A pinned extremum
// from a deep breath thus fades once breathing becomes shallower.
type decay struct {
	weight float64
}

// above pulls prev down toward cur when prev lies above it.
func (d decay) above(prev, cur float64) float64 {
	if prev > cur {
		return prev + (cur-prev)*d.weight
	}
	return prev
}

// below pulls prev up toward cur when prev lies below it.
func (d decay) below(prev, cur float64) float64 {
	if prev < cur {
		return prev + (cur-prev)*d.weight
	}
	return prev
}
