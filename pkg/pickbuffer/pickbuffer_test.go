package pickbuffer

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/taigrr/panoedit/pkg/math3d"
	"github.com/taigrr/panoedit/pkg/models"
	"github.com/taigrr/panoedit/pkg/render"
)

func testCamera(width, height int) *render.Camera {
	cam := render.NewCamera()
	cam.SetPosition(math3d.V3(0, 0.5, 10))
	cam.LookAt(math3d.V3(0, 0.5, 0))
	cam.SetAspectRatio(float64(width) / float64(height))
	return cam
}

// rowOfBoxes places n unit boxes side by side along X.
func rowOfBoxes(n int) []Candidate {
	box := models.Box()
	out := make([]Candidate, n)
	for i := range n {
		x := (float64(i) - float64(n-1)/2) * 2
		out[i] = Candidate{Index: i, Mesh: box, Transform: math3d.Translate(math3d.V3(x, 0, 0))}
	}
	return out
}

func TestEncodeDecode(t *testing.T) {
	for _, i := range []int{0, 1, 254, 255, 256, 70000, MaxCandidates - 1} {
		got, ok := Decode(Encode(i))
		if !ok || got != i {
			t.Errorf("Decode(Encode(%d)) = %d, %v", i, got, ok)
		}
	}
	if _, ok := Decode(Encode(-1)); ok {
		t.Error("background must decode to nothing")
	}
}

func TestResolveFootprintCenterRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		opts := Options{Width: 160, Height: 90}
		b, err := Build(testCamera(opts.Width, opts.Height), rowOfBoxes(n), 7, opts)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		for i := range n {
			center, pixels, ok := b.Footprint(i)
			if !ok {
				t.Fatalf("n=%d: candidate %d has no footprint", n, i)
			}
			got, ok, err := b.Resolve(center.X, center.Y, 7)
			if err != nil || !ok || got != i {
				t.Errorf("n=%d: Resolve(center of %d, %d px) = %d, %v, %v", n, i, pixels, got, ok, err)
			}
		}
	}
}

func TestResolveOutsideUnitSquare(t *testing.T) {
	opts := Options{Width: 64, Height: 64, JitterRadius: 3}
	// One huge box fills the whole view, so any in-range read would hit it.
	cands := []Candidate{{Index: 0, Mesh: models.Box(), Transform: math3d.Translate(math3d.V3(0, -50, 0)).Mul(math3d.ScaleUniform(100))}}
	cam := testCamera(64, 64)
	cam.SetPosition(math3d.V3(0, 0.5, 60))
	b, err := Build(cam, cands, 1, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, ok, _ := b.Resolve(0.5, 0.5, 1); !ok {
		t.Fatal("center should hit the enclosing box")
	}

	outside := [][2]float64{
		{-0.001, 0.5}, {1.001, 0.5}, {0.5, -0.001}, {0.5, 1.001},
		{-5, -5}, {5, 5}, {math.Inf(1), 0.5}, {math.NaN(), 0.5}, {0.5, math.NaN()},
	}
	for _, p := range outside {
		got, ok, err := b.Resolve(p[0], p[1], 1)
		if ok || err != nil {
			t.Errorf("Resolve(%v, %v) = %d, %v, %v; want nothing", p[0], p[1], got, ok, err)
		}
	}

	// The closed edges still resolve.
	for _, p := range [][2]float64{{0, 0}, {1, 1}, {0, 1}, {1, 0}} {
		if _, ok, _ := b.Resolve(p[0], p[1], 1); !ok {
			t.Errorf("Resolve(%v) on the buffer edge should hit", p)
		}
	}
}

func TestResolveBackground(t *testing.T) {
	opts := Options{Width: 64, Height: 36}
	b, err := Build(testCamera(64, 36), rowOfBoxes(1), 0, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok, err := b.Resolve(0.02, 0.02, 0); ok || err != nil {
		t.Errorf("corner should be background, got ok=%v err=%v", ok, err)
	}
}

func TestResolveStaleBuffer(t *testing.T) {
	opts := Options{Width: 32, Height: 32}
	b, err := Build(testCamera(32, 32), rowOfBoxes(1), 3, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	_, ok, err := b.Resolve(0.5, 0.5, 4)
	if ok {
		t.Error("stale resolve must not return an index")
	}
	if !errors.Is(err, ErrStaleBuffer) {
		t.Fatalf("err = %v, want ErrStaleBuffer", err)
	}
	var stale *StaleBufferError
	if !errors.As(err, &stale) || stale.Built != 3 || stale.Current != 4 {
		t.Errorf("StaleBufferError = %+v, want built 3 current 4", stale)
	}
}

func TestBuildRejectsMisorderedCandidates(t *testing.T) {
	cands := rowOfBoxes(2)
	cands[0].Index, cands[1].Index = 1, 0
	if _, err := Build(testCamera(8, 8), cands, 0, Options{Width: 8, Height: 8}); !errors.Is(err, ErrCandidateOrder) {
		t.Errorf("err = %v, want ErrCandidateOrder", err)
	}
	if _, err := New(Options{Width: 0, Height: 8}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("err = %v, want ErrInvalidSize", err)
	}
}

func TestResolveNearestWins(t *testing.T) {
	box := models.Box()
	cands := []Candidate{
		{Index: 0, Mesh: box, Transform: math3d.Identity()},
		// Smaller box one unit closer to the camera.
		{Index: 1, Mesh: box, Transform: math3d.Translate(math3d.V3(0, 0.25, 1.5)).Mul(math3d.ScaleUniform(0.5))},
	}
	opts := Options{Width: 128, Height: 128}
	b, err := Build(testCamera(128, 128), cands, 0, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	center, _, ok := b.Footprint(1)
	if !ok {
		t.Fatal("front box not visible")
	}
	if got, _, _ := b.Resolve(center.X, center.Y, 0); got != 1 {
		t.Errorf("Resolve over overlap = %d, want front box 1", got)
	}
}

func TestResolveJitterRadius(t *testing.T) {
	cands := rowOfBoxes(1)
	cam := testCamera(64, 64)

	exact, _ := Build(cam, cands, 0, Options{Width: 64, Height: 64})
	jitter, _ := Build(cam, cands, 0, Options{Width: 64, Height: 64, JitterRadius: 2})

	// Find a background pixel whose right-hand neighbor is the box.
	img := exact.Image()
	bx, by := -1, -1
	for y := 0; y < 64 && bx < 0; y++ {
		for x := 0; x+1 < 64; x++ {
			_, here := Decode(img.RGBAAt(x, y))
			_, right := Decode(img.RGBAAt(x+1, y))
			if !here && right {
				bx, by = x, y
				break
			}
		}
	}
	if bx < 0 {
		t.Fatal("no box edge found")
	}
	nx, ny := (float64(bx)+0.5)/64, (float64(by)+0.5)/64

	if _, ok, _ := exact.Resolve(nx, ny, 0); ok {
		t.Error("without jitter radius the edge pixel is background")
	}
	if got, ok, _ := jitter.Resolve(nx, ny, 0); !ok || got != 0 {
		t.Errorf("with jitter radius got %d, %v; want 0", got, ok)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	b, _ := Build(testCamera(48, 48), rowOfBoxes(3), 2, Options{Width: 48, Height: 48, JitterRadius: 1})
	before := b.Image()
	for range 3 {
		for y := 0.0; y <= 1; y += 0.1 {
			for x := 0.0; x <= 1; x += 0.1 {
				a1, ok1, _ := b.Resolve(x, y, 2)
				a2, ok2, _ := b.Resolve(x, y, 2)
				if a1 != a2 || ok1 != ok2 {
					t.Fatalf("Resolve(%v, %v) not idempotent", x, y)
				}
			}
		}
	}
	after := b.Image()
	for i := range before.Pix {
		if before.Pix[i] != after.Pix[i] {
			t.Fatal("Resolve modified the buffer")
		}
	}
}

func TestSavePNG(t *testing.T) {
	b, _ := Build(testCamera(16, 16), rowOfBoxes(1), 0, Options{Width: 16, Height: 16})
	if err := b.SavePNG(filepath.Join(t.TempDir(), "pick.png")); err != nil {
		t.Errorf("SavePNG: %v", err)
	}
}

func BenchmarkRebuild(b *testing.B) {
	cam := testCamera(160, 90)
	cands := rowOfBoxes(16)
	buf, _ := New(Options{Width: 160, Height: 90})
	for b.Loop() {
		_ = buf.Rebuild(cam, cands, 0)
	}
}

func BenchmarkResolve(b *testing.B) {
	buf, _ := Build(testCamera(160, 90), rowOfBoxes(16), 0, Options{Width: 160, Height: 90, JitterRadius: 2})
	for b.Loop() {
		_, _, _ = buf.Resolve(0.5, 0.5, 0)
	}
}
