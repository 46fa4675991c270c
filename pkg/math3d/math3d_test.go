package math3d

import (
	"math"
	"testing"
)

func TestInvertRoundTrip(t *testing.T) {
	m := Compose(V3(1, -2, 3), RotateY(0.7), V3(2, 0.5, 3))
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("expected invertible matrix")
	}
	p := V3(0.3, 0.4, -0.5)
	got := inv.MulVec3(m.MulVec3(p))
	if !got.ApproxEqual(p, 1e-9) {
		t.Errorf("inverse round trip = %v, want %v", got, p)
	}
}

func TestInvertSingular(t *testing.T) {
	m := Compose(V3(1, 2, 3), Identity(), V3(0, 1, 1))
	if _, ok := m.Invert(); ok {
		t.Error("zero-scale matrix should not be invertible")
	}
}

func TestRayIntersectPlaneY(t *testing.T) {
	tests := []struct {
		name   string
		ray    Ray
		wantOK bool
		wantT  float64
	}{
		{"straight down", NewRay(V3(0, 2, 0), V3(0, -1, 0)), true, 2},
		{"pointing away", NewRay(V3(0, 2, 0), V3(0, 1, 0)), false, 0},
		{"parallel", NewRay(V3(0, 2, 0), V3(1, 0, 0)), false, 0},
		{"on plane", NewRay(V3(0, 0, 0), V3(0, -1, 0)), false, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.ray.IntersectPlaneY(0, 1e-6)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && math.Abs(got-tc.wantT) > 1e-9 {
				t.Errorf("t = %v, want %v", got, tc.wantT)
			}
		})
	}
}

func TestRayIntersectTriangle(t *testing.T) {
	a, b, c := V3(-1, -1, 0), V3(1, -1, 0), V3(0, 1, 0)

	hit := NewRay(V3(0, 0, 5), V3(0, 0, -1))
	tHit, n, ok := hit.IntersectTriangle(a, b, c, 1e-9)
	if !ok {
		t.Fatal("expected hit")
	}
	if math.Abs(tHit-5) > 1e-9 {
		t.Errorf("t = %v, want 5", tHit)
	}
	if n.Normalize().Dot(hit.Dir) >= 0 {
		t.Errorf("normal %v should face the ray", n)
	}

	// Winding must not matter.
	if _, _, ok := hit.IntersectTriangle(a, c, b, 1e-9); !ok {
		t.Error("expected hit with reversed winding")
	}

	miss := NewRay(V3(2, 2, 5), V3(0, 0, -1))
	if _, _, ok := miss.IntersectTriangle(a, b, c, 1e-9); ok {
		t.Error("expected miss outside triangle")
	}

	behind := NewRay(V3(0, 0, -5), V3(0, 0, -1))
	if _, _, ok := behind.IntersectTriangle(a, b, c, 1e-9); ok {
		t.Error("triangle behind the origin must not hit")
	}
}

func TestRayIntersectBox(t *testing.T) {
	lo, hi := V3(-1, -1, -1), V3(1, 1, 1)

	outside := NewRay(V3(0, 0, 5), V3(0, 0, -1))
	if tHit, ok := outside.IntersectBox(lo, hi); !ok || math.Abs(tHit-4) > 1e-9 {
		t.Errorf("outside ray: t=%v ok=%v, want 4 true", tHit, ok)
	}

	inside := NewRay(V3(0, 0, 0), V3(1, 0, 0))
	if tHit, ok := inside.IntersectBox(lo, hi); !ok || math.Abs(tHit-1) > 1e-9 {
		t.Errorf("inside ray: t=%v ok=%v, want exit distance 1", tHit, ok)
	}

	miss := NewRay(V3(3, 0, 5), V3(0, 0, -1))
	if _, ok := miss.IntersectBox(lo, hi); ok {
		t.Error("expected miss")
	}
}

func TestRayIntersectVerticalCylinder(t *testing.T) {
	// From the axis, every horizontal ray exits at the radius.
	r := NewRay(V3(0, 1, 0), V3(1, 0, 1))
	tHit, ok := r.IntersectVerticalCylinder(Zero3(), 2, 1e-6)
	if !ok {
		t.Fatal("expected hit from inside")
	}
	p := r.At(tHit)
	if math.Abs(math.Hypot(p.X, p.Z)-2) > 1e-9 {
		t.Errorf("hit %v is not on the cylinder", p)
	}

	vertical := NewRay(V3(0, 1, 0), V3(0, 1, 0))
	if _, ok := vertical.IntersectVerticalCylinder(Zero3(), 2, 1e-6); ok {
		t.Error("vertical ray is parallel to the wall and must not hit")
	}
}

func TestAlignQuat(t *testing.T) {
	q := AlignQuat(Up(), V3(1, 0, 0))
	got := Rotate(q, Up())
	if !got.ApproxEqual(V3(1, 0, 0), 1e-9) {
		t.Errorf("rotated up = %v, want +X", got)
	}
}

func TestRotationMatrixMatchesRotate(t *testing.T) {
	q := YawQuat(math.Pi / 2)
	v := V3(0, 0, 1)
	if a, b := RotationMatrix(q).MulVec3Dir(v), Rotate(q, v); !a.ApproxEqual(b, 1e-9) {
		t.Errorf("matrix rotation %v != quaternion rotation %v", a, b)
	}
}
