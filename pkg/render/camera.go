package render

import (
	"math"

	"github.com/taigrr/panoedit/pkg/math3d"
)

// Camera represents a 3D camera with position and orientation. It is the
// camera provider for picking: Ray turns a normalized pointer position into
// a world-space pick ray.
type Camera struct {
	// Position in world space
	Position math3d.Vec3

	// Orientation (Euler angles in radians)
	Pitch float64 // Rotation around X axis (look up/down)
	Yaw   float64 // Rotation around Y axis (look left/right)
	Roll  float64 // Rotation around Z axis (tilt)

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane

	// Cached matrices (computed on demand)
	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	invViewProj    math3d.Mat4
	invertible     bool
	viewDirty      bool
	projDirty      bool
	vpDirty        bool

	// version increments whenever the view or projection changes.
	version uint64
}

// NewCamera creates a new camera with default settings.
func NewCamera() *Camera {
	return &Camera{
		Position:    math3d.V3(0, 1.6, 0),
		FOV:         math.Pi / 3, // 60 degrees
		AspectRatio: 16.0 / 9.0,
		Near:        0.05,
		Far:         100,
		viewDirty:   true,
		projDirty:   true,
		vpDirty:     true,
	}
}

// Version returns a counter that changes whenever the camera moves, turns or
// changes its projection. Pick buffers compare it to decide whether their
// contents are still current.
func (c *Camera) Version() uint64 {
	return c.version
}

func (c *Camera) touchView() {
	c.viewDirty = true
	c.vpDirty = true
	c.version++
}

func (c *Camera) touchProj() {
	c.projDirty = true
	c.vpDirty = true
	c.version++
}

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.touchView()
}

// SetRotation sets the camera rotation (pitch, yaw, roll in radians).
func (c *Camera) SetRotation(pitch, yaw, roll float64) {
	c.Pitch = pitch
	c.Yaw = yaw
	c.Roll = roll
	c.touchView()
}

// SetFOV sets the field of view (in radians).
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.touchProj()
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.touchProj()
}

// Aspect returns the width / height ratio of the view.
func (c *Camera) Aspect() float64 {
	return c.AspectRatio
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.touchProj()
}

// Forward returns the forward direction vector.
func (c *Camera) Forward() math3d.Vec3 {
	// Forward is -Z in camera space, rotated by yaw and pitch
	return math3d.V3(
		-math.Sin(c.Yaw)*math.Cos(c.Pitch),
		math.Sin(c.Pitch),
		-math.Cos(c.Yaw)*math.Cos(c.Pitch),
	)
}

// Right returns the right direction vector.
func (c *Camera) Right() math3d.Vec3 {
	return math3d.V3(
		math.Cos(c.Yaw),
		0,
		-math.Sin(c.Yaw),
	)
}

// Up returns the up direction vector.
func (c *Camera) Up() math3d.Vec3 {
	return c.Right().Cross(c.Forward())
}

// ViewMatrix returns the view matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		c.computeViewMatrix()
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	c.update()
	return c.viewProjMatrix
}

// update recomputes the cached view-projection matrix and its inverse.
func (c *Camera) update() {
	if c.vpDirty || c.viewDirty || c.projDirty {
		c.viewProjMatrix = c.ProjectionMatrix().Mul(c.ViewMatrix())
		c.invViewProj, c.invertible = c.viewProjMatrix.Invert()
		c.vpDirty = false
	}
}

func (c *Camera) computeViewMatrix() {
	// View = Rotation * Translation(-position), the rotation being the
	// inverse of the camera orientation.
	rot := math3d.RotateZ(-c.Roll).Mul(
		math3d.RotateX(-c.Pitch)).Mul(
		math3d.RotateY(-c.Yaw))

	trans := math3d.Translate(c.Position.Negate())

	c.viewMatrix = rot.Mul(trans)
}

// Rotate rotates the camera by the given angles (in radians).
func (c *Camera) Rotate(deltaPitch, deltaYaw, deltaRoll float64) {
	c.Pitch += deltaPitch
	c.Yaw += deltaYaw
	c.Roll += deltaRoll

	// Clamp pitch to avoid gimbal lock issues
	const maxPitch = math.Pi/2 - 0.01
	if c.Pitch > maxPitch {
		c.Pitch = maxPitch
	}
	if c.Pitch < -maxPitch {
		c.Pitch = -maxPitch
	}

	c.touchView()
}

// LookAt makes the camera look at a target point.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position).Normalize()

	c.Pitch = math.Asin(dir.Y)
	c.Yaw = math.Atan2(-dir.X, -dir.Z)
	c.Roll = 0

	c.touchView()
}

// Orbit places the camera on a sphere of the given radius around target and
// points it at the target. yaw turns around the world up axis; pitch is
// clamped short of the poles.
func (c *Camera) Orbit(target math3d.Vec3, radius, yaw, pitch float64) {
	const maxPitch = math.Pi/2 - 0.01
	pitch = math.Max(-maxPitch, math.Min(maxPitch, pitch))
	offset := math3d.V3(
		math.Sin(yaw)*math.Cos(pitch),
		math.Sin(pitch),
		math.Cos(yaw)*math.Cos(pitch),
	).Scale(radius)
	c.Position = target.Add(offset)
	c.LookAt(target)
}

// Ray returns the world-space ray through a normalized screen coordinate,
// with (0, 0) at the top-left corner and (1, 1) at the bottom-right. The ray
// starts at the camera position.
func (c *Camera) Ray(nx, ny float64) math3d.Ray {
	c.update()
	if !c.invertible {
		return math3d.Ray{Origin: c.Position, Dir: c.Forward()}
	}

	ndcX := 2*nx - 1
	ndcY := 1 - 2*ny
	near := c.invViewProj.MulVec4(math3d.V4(ndcX, ndcY, -1, 1)).PerspectiveDivide()
	far := c.invViewProj.MulVec4(math3d.V4(ndcX, ndcY, 1, 1)).PerspectiveDivide()

	return math3d.NewRay(c.Position, far.Sub(near))
}

// WorldToNormalized projects a world point to normalized screen coordinates,
// the inverse of Ray. ok is false for points behind the camera. Points
// outside the view still project, to coordinates outside [0, 1].
func (c *Camera) WorldToNormalized(worldPos math3d.Vec3) (p math3d.Vec2, ok bool) {
	clipPos := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(worldPos, 1))
	if clipPos.W <= 0 {
		return math3d.Vec2{}, false
	}
	ndc := clipPos.PerspectiveDivide()
	return math3d.V2((ndc.X+1)*0.5, (1-ndc.Y)*0.5), true
}

// WorldToScreen transforms a world point to pixel coordinates.
// Returns (screenX, screenY, depth, visible).
func (c *Camera) WorldToScreen(worldPos math3d.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	clipPos := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(worldPos, 1))

	// Check if behind camera
	if clipPos.W <= 0 {
		return 0, 0, 0, false
	}

	ndc := clipPos.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}

	x = (ndc.X + 1) * 0.5 * float64(screenWidth)
	y = (1 - ndc.Y) * 0.5 * float64(screenHeight) // Y is flipped
	depth = ndc.Z

	return x, y, depth, true
}
