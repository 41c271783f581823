package app

import (
	"github.com/gekko3d/volren/volrt/rt/core"
)

// CameraNotifier receives the interaction lifecycle of the camera.
type CameraNotifier interface {
	NotifyCameraChangeStart()
	NotifyCameraChange()
	NotifyCameraChangeEnd()
}

// OrbitController turns pointer drags and scrolling into orbit and dolly
// moves around the volume center. Input is accumulated between frames and
// applied in Update.
type OrbitController struct {
	Camera      *core.CameraState
	Notifier    CameraNotifier
	Sensitivity float32
	ZoomStep    float32
	// RotateSpeed is the auto rotation in radians per Update.
	RotateSpeed float32

	dragging   bool
	lastX      float64
	lastY      float64
	yaw, pitch float32
	dolly      float32
	autoRotate bool
}

func NewOrbitController(camera *core.CameraState, notifier CameraNotifier) *OrbitController {
	return &OrbitController{
		Camera:      camera,
		Notifier:    notifier,
		Sensitivity: 0.005,
		ZoomStep:    0.1,
		RotateSpeed: 0.01,
		dolly:       1,
	}
}

func (o *OrbitController) SetAutoRotate(on bool) { o.autoRotate = on }

func (o *OrbitController) IsDragging() bool { return o.dragging }

func (o *OrbitController) BeginDrag(x, y float64) {
	o.dragging = true
	o.lastX, o.lastY = x, y
	if o.Notifier != nil {
		o.Notifier.NotifyCameraChangeStart()
	}
}

func (o *OrbitController) Drag(x, y float64) {
	if !o.dragging {
		return
	}
	o.yaw -= float32(x-o.lastX) * o.Sensitivity
	o.pitch += float32(y-o.lastY) * o.Sensitivity
	o.lastX, o.lastY = x, y
}

func (o *OrbitController) EndDrag() {
	if !o.dragging {
		return
	}
	o.dragging = false
	if o.Notifier != nil {
		o.Notifier.NotifyCameraChangeEnd()
	}
}

// Scroll dollies in for positive offsets.
func (o *OrbitController) Scroll(offset float64) {
	if offset > 0 {
		o.dolly *= 1 - o.ZoomStep
	} else if offset < 0 {
		o.dolly *= 1 + o.ZoomStep
	}
}

// Update applies pending input and auto rotation to the camera.
func (o *OrbitController) Update() {
	yaw, pitch, dolly := o.yaw, o.pitch, o.dolly
	if o.autoRotate {
		yaw += o.RotateSpeed
	}
	o.yaw, o.pitch, o.dolly = 0, 0, 1

	if yaw == 0 && pitch == 0 && dolly == 1 {
		return
	}
	if yaw != 0 || pitch != 0 {
		o.Camera.Orbit(yaw, pitch)
	}
	if dolly != 1 {
		o.Camera.Dolly(dolly)
	}
	if o.Notifier != nil {
		o.Notifier.NotifyCameraChange()
	}
}
