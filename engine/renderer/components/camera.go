package components

import "github.com/go-gl/mathgl/mgl32"

var (
	DefaultCameraPosition = mgl32.Vec3{2, 2, 2}
	DefaultCameraTarget   = mgl32.Vec3{0, 0, 0}
	// Z is up, so the cube spins in the XY plane.
	DefaultCameraUp = mgl32.Vec3{0, 0, 1}
)

const (
	DefaultCameraFovY float32 = 45
	DefaultCameraNear float32 = 0.1
	DefaultCameraFar  float32 = 10
)

/**
 * @brief A look-at camera with a perspective lens. The view matrix is cached
 * and only rebuilt after the position or target changed.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position mgl32.Vec3
	/** @brief The point the camera looks at. */
	Target mgl32.Vec3
	Up     mgl32.Vec3

	/** @brief Vertical field of view in degrees. */
	FovY float32
	Near float32
	Far  float32

	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of this camera.
	 * NOTE: IMPORTANT: Do not get this directly, use GetView() instead
	 * so the view matrix is recalculated when needed.
	 */
	ViewMatrix mgl32.Mat4
}

func NewCamera() *Camera {
	c := &Camera{}
	c.Reset()
	return c
}

func (c *Camera) Reset() {
	c.Position = DefaultCameraPosition
	c.Target = DefaultCameraTarget
	c.Up = DefaultCameraUp
	c.FovY = DefaultCameraFovY
	c.Near = DefaultCameraNear
	c.Far = DefaultCameraFar
	c.IsDirty = true
}

func (c *Camera) GetPosition() mgl32.Vec3 {
	return c.Position
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) SetTarget(target mgl32.Vec3) {
	c.Target = target
	c.IsDirty = true
}

func (c *Camera) GetView() mgl32.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = mgl32.LookAtV(c.Position, c.Target, c.Up)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

// GetProjection uses OpenGL clip conventions. A zero or negative aspect falls back to 1.
func (c *Camera) GetProjection(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// Distance from the camera to its target.
func (c *Camera) Distance() float32 {
	return c.Target.Sub(c.Position).Len()
}
