package preview

import (
	"math"
	"testing"

	"github.com/taigrr/panoedit/pkg/math3d"
	"github.com/taigrr/panoedit/pkg/transform"
)

func TestSmootherFirstTargetSnaps(t *testing.T) {
	s := NewSmoother(60, 0, 0)
	if s.Active() {
		t.Fatal("new smoother is active")
	}
	tr := transform.Uniform(math3d.V3(1, 0, -2), 0.5, math3d.YawQuat(0.3))
	s.SetTarget(tr)
	if !s.Current().ApproxEqual(tr, 1e-12) {
		t.Errorf("Current = %+v, want %+v", s.Current(), tr)
	}
}

func TestSmootherConverges(t *testing.T) {
	s := NewSmoother(60, DefaultFrequency, DefaultDamping)
	s.SetTarget(transform.Identity())

	target := transform.Uniform(math3d.V3(3, 1, -4), 2, math3d.YawQuat(math.Pi/2))
	s.SetTarget(target)

	first := s.Update()
	if first.ApproxEqual(target, 1e-3) {
		t.Error("first frame already at target; expected easing")
	}
	if first.Position.X <= 0 || first.Position.X >= 3 {
		t.Errorf("first frame x = %v, want between start and target", first.Position.X)
	}

	for range 600 {
		s.Update()
	}
	if !s.Settled(1e-4) {
		t.Errorf("not settled: %+v", s.Current())
	}
	if err := s.Current().Validate(); err != nil {
		t.Errorf("eased transform invalid: %v", err)
	}
}

func TestSmootherCriticallyDampedDoesNotOvershoot(t *testing.T) {
	s := NewSmoother(60, 4, 1)
	s.SetTarget(transform.Identity())
	s.SetTarget(transform.Identity().WithPosition(math3d.V3(1, 0, 0)))
	for range 300 {
		if x := s.Update().Position.X; x > 1+1e-9 {
			t.Fatalf("overshot to %v", x)
		}
	}
}

func TestSmootherReset(t *testing.T) {
	s := NewSmoother(0, 0, 0)
	s.SetTarget(transform.Identity().WithPosition(math3d.V3(5, 0, 0)))
	s.Reset()
	if s.Active() {
		t.Error("active after reset")
	}
	tr := transform.Identity().WithPosition(math3d.V3(-5, 0, 0))
	s.SetTarget(tr)
	if !s.Current().ApproxEqual(tr, 1e-12) {
		t.Error("target after reset was eased instead of shown")
	}
}
