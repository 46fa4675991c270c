package transform

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/taigrr/panoedit/pkg/math3d"
)

func TestNewEnforcesInvariants(t *testing.T) {
	tr := New(math3d.V3(1, 2, 3), math3d.V3(-1, 0, 2), mgl64.Quat{W: 2})

	if tr.Scale.X != 0 || tr.Scale.Y != 0 || tr.Scale.Z != 2 {
		t.Errorf("scale = %v, want (0, 0, 2)", tr.Scale)
	}
	if math.Abs(tr.Orientation.Len()-1) > 1e-12 {
		t.Errorf("orientation length = %v, want 1", tr.Orientation.Len())
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if !tr.Degenerate() {
		t.Error("zero scale should be reported as degenerate")
	}
}

func TestNewZeroQuaternionBecomesIdentity(t *testing.T) {
	tr := New(math3d.Zero3(), math3d.One3(), mgl64.Quat{})
	if tr.Orientation != mgl64.QuatIdent() {
		t.Errorf("orientation = %v, want identity", tr.Orientation)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
		want error
	}{
		{"identity", Identity(), nil},
		{"negative scale", Transform{Scale: math3d.V3(1, -1, 1), Orientation: mgl64.QuatIdent()}, ErrNegativeScale},
		{"unnormalized", Transform{Scale: math3d.One3(), Orientation: mgl64.Quat{W: 3}}, ErrNotNormalized},
		{"nan position", Transform{Position: math3d.V3(math.NaN(), 0, 0), Scale: math3d.One3(), Orientation: mgl64.QuatIdent()}, ErrNonFinite},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tr.Validate()
			if tc.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestMatrixAppliesScaleRotateTranslate(t *testing.T) {
	tr := New(math3d.V3(10, 0, 0), math3d.V3(2, 2, 2), math3d.YawQuat(math.Pi/2))
	got := tr.Matrix().MulVec3(math3d.V3(0, 0, 1))
	// scale to (0,0,2), yaw 90° to (2,0,0), then translate.
	want := math3d.V3(12, 0, 0)
	if !got.ApproxEqual(want, 1e-9) {
		t.Errorf("Matrix() * (0,0,1) = %v, want %v", got, want)
	}
}

func TestJSONUsesPlainArrays(t *testing.T) {
	tr := New(math3d.V3(0, 0, -2), math3d.V3(1, 1, 1), math3d.YawQuat(0.5))

	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("wire form is not plain arrays: %v", err)
	}
	if len(raw["quaternion"]) != 4 || len(raw["position"]) != 3 {
		t.Errorf("unexpected wire form %s", data)
	}

	var back Transform
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !back.ApproxEqual(tr, 1e-12) {
		t.Errorf("decoded %v, want %v", back, tr)
	}
}

func TestApproxEqualTreatsNegatedQuatAsSame(t *testing.T) {
	q := math3d.YawQuat(1)
	a := New(math3d.Zero3(), math3d.One3(), q)
	b := a
	b.Orientation = q.Scale(-1)
	if !a.ApproxEqual(b, 1e-12) {
		t.Error("q and -q should compare equal")
	}
}
