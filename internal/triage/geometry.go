package triage

// IOU computes intersection-over-union for two axis-aligned rectangles.
// Rectangles with zero-area intersection (including degenerate boxes with
// w or h of zero) score 0, so they can never win an association.
func IOU(a, b Rect) float64 {
	ix := overlap1D(a.X, a.X+a.W, b.X, b.X+b.W)
	iy := overlap1D(a.Y, a.Y+a.H, b.Y, b.Y+b.H)
	inter := ix * iy
	if inter <= 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// overlap1D returns the length of the overlap of [a0,a1] and [b0,b1],
// clamped at zero.
func overlap1D(a0, a1, b0, b1 float64) float64 {
	lo := a0
	if b0 > lo {
		lo = b0
	}
	hi := a1
	if b1 < hi {
		hi = b1
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}
