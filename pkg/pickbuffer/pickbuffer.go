// Package pickbuffer implements the index pick buffer: an offscreen image in
// which every pickable object is drawn in a flat color that encodes its
// index, so a pointer position resolves to an object with one pixel read.
package pickbuffer

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/taigrr/panoedit/pkg/math3d"
	"github.com/taigrr/panoedit/pkg/render"
)

var (
	// ErrStaleBuffer is matched by StaleBufferError via errors.Is.
	ErrStaleBuffer = errors.New("pickbuffer: stale buffer")
	// ErrCandidateOrder is returned when candidate indices do not mirror
	// their positions in the candidate list.
	ErrCandidateOrder = errors.New("pickbuffer: candidate index does not match its position")
	// ErrTooManyCandidates is returned when the identifiers would not fit in
	// 24 bits of color.
	ErrTooManyCandidates = errors.New("pickbuffer: too many candidates")
	// ErrInvalidSize is returned for a non-positive buffer size.
	ErrInvalidSize = errors.New("pickbuffer: invalid size")
)

// MaxCandidates is the number of distinct identifiers available. Zero is
// reserved for the background.
const MaxCandidates = 1<<24 - 1

// StaleBufferError is returned by Resolve when the buffer was built for a
// different registry generation than the caller's current one.
type StaleBufferError struct {
	Built   uint64
	Current uint64
}

func (e *StaleBufferError) Error() string {
	return fmt.Sprintf("pickbuffer: buffer built at generation %d, resolved at %d", e.Built, e.Current)
}

// Is makes errors.Is(err, ErrStaleBuffer) match.
func (e *StaleBufferError) Is(target error) bool {
	return target == ErrStaleBuffer
}

// Candidate is one pickable object: its registry index and the mesh and
// model matrix that give its on-screen footprint.
type Candidate struct {
	Index     int
	Mesh      render.MeshRenderer
	Transform math3d.Mat4
}

// Options configures a buffer.
type Options struct {
	Width  int
	Height int
	// JitterRadius is the pixel radius searched around the pointer when it
	// lands on background, to tolerate sub-pixel pointer jitter.
	JitterRadius int
}

// Buffer is a built pick buffer. Resolve is read-only and may be called any
// number of times until the next Rebuild.
type Buffer struct {
	opts       Options
	fb         *render.Framebuffer
	generation uint64
	camVersion uint64
	count      int
}

// New allocates an empty buffer that resolves nothing until built.
func New(opts Options) (*Buffer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}
	if opts.JitterRadius < 0 {
		opts.JitterRadius = 0
	}
	return &Buffer{
		opts: opts,
		fb:   render.NewFramebuffer(opts.Width, opts.Height),
	}, nil
}

// Build allocates a buffer and renders candidates into it.
func Build(cam *render.Camera, candidates []Candidate, generation uint64, opts Options) (*Buffer, error) {
	b, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := b.Rebuild(cam, candidates, generation); err != nil {
		return nil, err
	}
	return b, nil
}

// Rebuild renders candidates from cam, replacing the previous contents.
// Candidate i must carry Index i. generation is the registry generation the
// candidate list was taken from.
func (b *Buffer) Rebuild(cam *render.Camera, candidates []Candidate, generation uint64) error {
	if len(candidates) > MaxCandidates {
		return fmt.Errorf("%w: %d", ErrTooManyCandidates, len(candidates))
	}
	for i, c := range candidates {
		if c.Index != i {
			return fmt.Errorf("%w: position %d has index %d", ErrCandidateOrder, i, c.Index)
		}
	}

	b.fb.Clear(Encode(-1))
	r := render.NewRasterizer(cam, b.fb)
	for i, c := range candidates {
		if c.Mesh == nil {
			continue
		}
		r.DrawMeshFlat(c.Mesh, c.Transform, Encode(i))
	}

	b.generation = generation
	b.camVersion = cam.Version()
	b.count = len(candidates)
	return nil
}

// Generation returns the registry generation the buffer was built for.
func (b *Buffer) Generation() uint64 {
	return b.generation
}

// CameraVersion returns the camera version the buffer was built from.
func (b *Buffer) CameraVersion() uint64 {
	return b.camVersion
}

// Len returns the number of candidates in the last build.
func (b *Buffer) Len() int {
	return b.count
}

// Size returns the buffer dimensions in pixels.
func (b *Buffer) Size() (width, height int) {
	return b.opts.Width, b.opts.Height
}

// Encode returns the flat color identifying candidate index. Index -1 is the
// background.
func Encode(index int) render.Color {
	id := uint32(index + 1)
	return render.RGB(uint8(id>>16), uint8(id>>8), uint8(id))
}

// Decode is the inverse of Encode. ok is false for the background.
func Decode(c render.Color) (index int, ok bool) {
	id := int(c.R)<<16 | int(c.G)<<8 | int(c.B)
	if id == 0 {
		return 0, false
	}
	return id - 1, true
}

// pixel maps a normalized coordinate to a pixel, rejecting coordinates
// outside [0, 1]×[0, 1].
func (b *Buffer) pixel(nx, ny float64) (x, y int, ok bool) {
	if math.IsNaN(nx) || math.IsNaN(ny) || nx < 0 || nx > 1 || ny < 0 || ny > 1 {
		return 0, 0, false
	}
	x = min(int(nx*float64(b.opts.Width)), b.opts.Width-1)
	y = min(int(ny*float64(b.opts.Height)), b.opts.Height-1)
	return x, y, true
}

func (b *Buffer) at(x, y int) (int, bool) {
	index, ok := Decode(b.fb.GetPixel(x, y))
	if !ok || index >= b.count {
		return 0, false
	}
	return index, true
}

// Resolve decodes the object under normalized coordinate (nx, ny), with
// (0, 0) at the top-left. ok is false for background and for coordinates
// outside the buffer. generation is the caller's current registry
// generation; a mismatch returns a *StaleBufferError.
func (b *Buffer) Resolve(nx, ny float64, generation uint64) (index int, ok bool, err error) {
	if generation != b.generation {
		return 0, false, &StaleBufferError{Built: b.generation, Current: generation}
	}
	x, y, inside := b.pixel(nx, ny)
	if !inside {
		return 0, false, nil
	}
	if index, ok := b.at(x, y); ok {
		return index, true, nil
	}
	index, ok = b.nearest(x, y)
	return index, ok, nil
}

// nearest searches the jitter neighborhood of (x, y) for the closest
// non-background pixel. Ties keep the first in row-major order.
func (b *Buffer) nearest(x, y int) (int, bool) {
	rad := b.opts.JitterRadius
	best, bestDist := 0, math.MaxInt
	for dy := -rad; dy <= rad; dy++ {
		for dx := -rad; dx <= rad; dx++ {
			d := dx*dx + dy*dy
			if d == 0 || d > rad*rad || d >= bestDist {
				continue
			}
			if index, ok := b.at(x+dx, y+dy); ok {
				best, bestDist = index, d
			}
		}
	}
	return best, bestDist != math.MaxInt
}

// Footprint returns the centroid, in normalized coordinates, of the pixels
// showing candidate index, and how many pixels that is. ok is false when the
// candidate is entirely hidden or off screen.
func (b *Buffer) Footprint(index int) (center math3d.Vec2, pixels int, ok bool) {
	var sx, sy float64
	for y := range b.opts.Height {
		for x := range b.opts.Width {
			if i, hit := b.at(x, y); hit && i == index {
				sx += float64(x) + 0.5
				sy += float64(y) + 0.5
				pixels++
			}
		}
	}
	if pixels == 0 {
		return math3d.Vec2{}, 0, false
	}
	n := float64(pixels)
	return math3d.V2(sx/n/float64(b.opts.Width), sy/n/float64(b.opts.Height)), pixels, true
}

// Image returns a copy of the identifier image.
func (b *Buffer) Image() *image.RGBA {
	return b.fb.ToImage()
}

// SavePNG writes the identifier image to path for debugging.
func (b *Buffer) SavePNG(path string) error {
	return b.fb.SavePNG(path)
}
