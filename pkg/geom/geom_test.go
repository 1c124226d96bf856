package geom

import "testing"

func TestBoxArea(t *testing.T) {
	tests := []struct {
		name string
		box  Box
		want int64
	}{
		{"unit grid cell", Box{0, 0, 10000, 10000}, 100_000_000},
		{"offset", Box{-5, 10, 5, 30}, 200},
		{"degenerate", Box{3, 3, 3, 9}, 0},
		{"empty", EmptyBox(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.Area(); got != tt.want {
				t.Errorf("Area() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBoundingBox(t *testing.T) {
	pts := []Point{{0, 0}, {40, 0}, {40, 10}, {10, 10}, {10, 30}, {0, 30}}
	got := BoundingBox(pts)
	want := Box{0, 0, 40, 30}
	if got != want {
		t.Errorf("BoundingBox() = %v, want %v", got, want)
	}
	if !BoundingBox(nil).Empty() {
		t.Error("BoundingBox(nil) should be empty")
	}
}

func TestUnionIntersect(t *testing.T) {
	a := Box{0, 0, 10, 10}
	b := Box{5, -5, 20, 8}

	if got, want := a.Union(b), (Box{0, -5, 20, 10}); got != want {
		t.Errorf("Union() = %v, want %v", got, want)
	}
	if got, want := a.Intersect(b), (Box{5, 0, 10, 8}); got != want {
		t.Errorf("Intersect() = %v, want %v", got, want)
	}
	if got := EmptyBox().Union(a); got != a {
		t.Errorf("EmptyBox().Union(a) = %v, want %v", got, a)
	}
	if !a.Intersect(Box{20, 20, 30, 30}).Empty() {
		t.Error("disjoint boxes should intersect to empty")
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct{ a, b, want int64 }{
		{0, 10, 0},
		{9, 10, 0},
		{10, 10, 1},
		{-1, 10, -1},
		{-10, 10, -1},
		{-11, 10, -2},
	}
	for _, tt := range tests {
		if got := FloorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("FloorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(-3, 0, 63); got != 0 {
		t.Errorf("Clamp(-3) = %d, want 0", got)
	}
	if got := Clamp(100, 0, 63); got != 63 {
		t.Errorf("Clamp(100) = %d, want 63", got)
	}
	if got := Clamp(7, 0, 63); got != 7 {
		t.Errorf("Clamp(7) = %d, want 7", got)
	}
}
