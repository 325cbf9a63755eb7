package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera. FovY is vertical field of view in degrees.
type Camera struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3

	FovY   float64
	Aspect float64
	Near   float64
	Far    float64
}

// NewCamera builds a camera from its configuration with a square aspect.
func NewCamera(cfg CameraConfig) Camera {
	return Camera{
		Position: cfg.Position,
		Target:   cfg.Target,
		Up:       axisY,
		FovY:     cfg.FovY,
		Aspect:   1,
		Near:     cfg.Near,
		Far:      cfg.Far,
	}
}

// ViewMatrix transforms world space into camera space.
func (c Camera) ViewMatrix() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, c.Up)
}

// ProjectionMatrix transforms camera space into clip space.
func (c Camera) ProjectionMatrix() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

// Forward is the unit direction the camera looks along.
func (c Camera) Forward() mgl64.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

// Project maps a world point onto a w by h viewport with the origin top left.
// depth is the distance along the view axis; ok is false outside the near/far range.
func (c Camera) Project(p mgl64.Vec3, w, h float64) (screen mgl64.Vec2, depth float64, ok bool) {
	eye := c.ViewMatrix().Mul4x1(p.Vec4(1))
	depth = -eye[2]
	if depth < c.Near || depth > c.Far {
		return mgl64.Vec2{}, depth, false
	}
	clip := c.ProjectionMatrix().Mul4x1(eye)
	ndc := clip.Vec3().Mul(1 / clip[3])
	return mgl64.Vec2{(ndc[0] + 1) / 2 * w, (1 - ndc[1]) / 2 * h}, depth, true
}

// ScreenRadius is the projected radius in pixels of a sphere at the given depth
// on a viewport h pixels tall.
func (c Camera) ScreenRadius(radius, depth, h float64) float64 {
	if depth <= 0 {
		return 0
	}
	return radius * h / (2 * math.Tan(mgl64.DegToRad(c.FovY)/2) * depth)
}

// ShipMount holds the ship camera rigidly in the ship's local frame.
type ShipMount struct {
	Offset  mgl64.Vec3
	Forward mgl64.Vec3
	Up      mgl64.Vec3
}

// NewShipMount aims a camera at offset toward target while the ship sits at home,
// then freezes that look direction relative to the ship.
func NewShipMount(offset mgl64.Vec3, home Pose, target mgl64.Vec3) ShipMount {
	q := EulerXYZ(home.Rotation)
	eye := home.Position.Add(q.Rotate(offset))
	inv := q.Inverse()
	return ShipMount{
		Offset:  offset,
		Forward: inv.Rotate(target.Sub(eye).Normalize()),
		Up:      inv.Rotate(axisY),
	}
}

// Place moves cam to the mount on a ship with transform t.
func (m ShipMount) Place(cam *Camera, t *Transform) {
	q := t.Quat()
	cam.Position = t.Position.Add(q.Rotate(m.Offset))
	cam.Target = cam.Position.Add(q.Rotate(m.Forward))
	cam.Up = q.Rotate(m.Up)
}

const controlsEpsilon = 1e-6

// OrbitControls turn pointer input into orbiting and zooming around a target.
// Input accumulates as pending deltas; Update eases a fraction of them into the
// camera each frame when damping is on.
type OrbitControls struct {
	Enabled       bool
	Target        mgl64.Vec3
	EnableDamping bool
	DampingFactor float64
	RotateSpeed   float64
	ZoomSpeed     float64
	MinDistance   float64
	MaxDistance   float64

	deltaTheta float64
	deltaPhi   float64
	scale      float64
}

// NewOrbitControls returns enabled controls orbiting target.
func NewOrbitControls(target mgl64.Vec3, dampingFactor float64) OrbitControls {
	return OrbitControls{
		Enabled:       true,
		Target:        target,
		EnableDamping: dampingFactor > 0,
		DampingFactor: dampingFactor,
		RotateSpeed:   1,
		ZoomSpeed:     1,
		MaxDistance:   math.Inf(1),
		scale:         1,
	}
}

// Rotate feeds a pointer drag of dx, dy pixels on a viewport height pixels tall.
func (c *OrbitControls) Rotate(dx, dy, height float64) {
	if !c.Enabled || height <= 0 {
		return
	}
	c.deltaTheta -= 2 * math.Pi * dx / height * c.RotateSpeed
	c.deltaPhi -= 2 * math.Pi * dy / height * c.RotateSpeed
}

// Zoom feeds wheel steps; positive steps move the camera closer.
func (c *OrbitControls) Zoom(steps float64) {
	if !c.Enabled || steps == 0 {
		return
	}
	if c.scale == 0 {
		c.scale = 1
	}
	c.scale *= math.Pow(0.95, c.ZoomSpeed*steps)
}

// Pending reports whether any input is still to be applied.
func (c *OrbitControls) Pending() bool {
	return math.Abs(c.deltaTheta) > controlsEpsilon ||
		math.Abs(c.deltaPhi) > controlsEpsilon ||
		(c.scale != 0 && math.Abs(c.scale-1) > controlsEpsilon)
}

// Update moves cam by the pending input and reports whether it moved.
func (c *OrbitControls) Update(cam *Camera) bool {
	if c.scale == 0 {
		c.scale = 1
	}

	offset := cam.Position.Sub(c.Target)
	radius := offset.Len()
	theta := math.Atan2(offset[0], offset[2])
	phi := 0.0
	if radius > 0 {
		phi = math.Acos(mgl64.Clamp(offset[1]/radius, -1, 1))
	}

	if c.EnableDamping {
		theta += c.deltaTheta * c.DampingFactor
		phi += c.deltaPhi * c.DampingFactor
	} else {
		theta += c.deltaTheta
		phi += c.deltaPhi
	}
	phi = mgl64.Clamp(phi, controlsEpsilon, math.Pi-controlsEpsilon)

	radius = mgl64.Clamp(radius*c.scale, c.MinDistance, c.MaxDistance)

	sinPhi := math.Sin(phi)
	next := c.Target.Add(mgl64.Vec3{
		radius * sinPhi * math.Sin(theta),
		radius * math.Cos(phi),
		radius * sinPhi * math.Cos(theta),
	})

	if c.EnableDamping {
		c.deltaTheta *= 1 - c.DampingFactor
		c.deltaPhi *= 1 - c.DampingFactor
	} else {
		c.deltaTheta, c.deltaPhi = 0, 0
	}
	c.scale = 1

	moved := next.Sub(cam.Position).LenSqr() > controlsEpsilon
	cam.Position = next
	cam.Target = c.Target
	cam.Up = axisY
	return moved
}

// CameraKind names one of the two cameras in a CameraRig.
type CameraKind int

const (
	CameraSystem CameraKind = iota
	CameraShip
)

func (k CameraKind) String() string {
	if k == CameraShip {
		return "ship"
	}
	return "system"
}

// CameraRig owns both cameras, the orbit controls and the active selection.
type CameraRig struct {
	System   Camera
	Ship     Camera
	Mount    ShipMount
	Controls OrbitControls
	Active   CameraKind

	Width, Height int
}

// Resize sets the viewport size and both cameras' aspect ratios.
func (r *CameraRig) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.Width, r.Height = width, height
	aspect := float64(width) / float64(height)
	r.System.Aspect = aspect
	r.Ship.Aspect = aspect
}

// Current returns the active camera.
func (r *CameraRig) Current() Camera {
	if r.Active == CameraShip {
		return r.Ship
	}
	return r.System
}
