package triage

import (
	"math"
	"testing"
)

func TestIOU(t *testing.T) {
	t.Parallel()

	a := Rect{X: 0, Y: 0, W: 0.2, H: 0.2}
	b := Rect{X: 0.1, Y: 0.1, W: 0.2, H: 0.2}
	c := Rect{X: 0.5, Y: 0.5, W: 0.2, H: 0.2}

	t.Run("disjoint rectangles score zero", func(t *testing.T) {
		if got := IOU(a, c); got != 0 {
			t.Fatalf("IOU of disjoint rects = %f, want 0", got)
		}
	})

	t.Run("identical rectangles score one", func(t *testing.T) {
		if got := IOU(a, a); math.Abs(got-1) > 1e-12 {
			t.Fatalf("IOU of identical rects = %f, want 1", got)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		if IOU(a, b) != IOU(b, a) {
			t.Fatalf("IOU is not symmetric: %f vs %f", IOU(a, b), IOU(b, a))
		}
	})

	t.Run("partial overlap", func(t *testing.T) {
		// Intersection 0.1x0.1, union 2*0.04 - 0.01 = 0.07.
		want := 0.01 / 0.07
		if got := IOU(a, b); math.Abs(got-want) > 1e-12 {
			t.Fatalf("IOU = %f, want %f", got, want)
		}
	})

	t.Run("zero-area rectangles never overlap", func(t *testing.T) {
		degenerate := Rect{X: 0.05, Y: 0.05, W: 0, H: 0.2}
		if got := IOU(a, degenerate); got != 0 {
			t.Fatalf("IOU with zero-area rect = %f, want 0", got)
		}
		if got := IOU(degenerate, degenerate); got != 0 {
			t.Fatalf("IOU of zero-area rect with itself = %f, want 0", got)
		}
	})

	t.Run("touching edges score zero", func(t *testing.T) {
		touching := Rect{X: 0.2, Y: 0, W: 0.2, H: 0.2}
		if got := IOU(a, touching); got != 0 {
			t.Fatalf("IOU of edge-touching rects = %f, want 0", got)
		}
	})
}
