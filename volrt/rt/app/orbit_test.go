package app

import (
	"testing"

	"github.com/gekko3d/volren/volrt/rt/core"
	"github.com/stretchr/testify/assert"
)

type recordingNotifier struct{ events []string }

func (r *recordingNotifier) NotifyCameraChangeStart() { r.events = append(r.events, "start") }
func (r *recordingNotifier) NotifyCameraChange()      { r.events = append(r.events, "change") }
func (r *recordingNotifier) NotifyCameraChangeEnd()   { r.events = append(r.events, "end") }

func TestOrbitDrag(t *testing.T) {
	cam := core.NewCameraState(3, 1)
	n := &recordingNotifier{}
	o := NewOrbitController(cam, n)

	o.Drag(10, 0)
	o.Update()
	assert.Empty(t, n.events, "drag without a button press is ignored")

	o.BeginDrag(100, 100)
	o.Drag(200, 100)
	o.Update()
	o.EndDrag()
	o.EndDrag()

	assert.Equal(t, []string{"start", "change", "end"}, n.events)
	assert.InDelta(t, 3, cam.Position.Len(), 1e-4, "orbit keeps the radius")
	assert.NotEqual(t, float32(0), cam.Position.X())
}

func TestOrbitScrollAndAutoRotate(t *testing.T) {
	cam := core.NewCameraState(3, 1)
	o := NewOrbitController(cam, nil)

	o.Scroll(1)
	o.Update()
	assert.InDelta(t, 2.7, cam.Position.Len(), 1e-4)

	before := cam.Position
	o.Update()
	assert.Equal(t, before, cam.Position, "no pending input")

	o.SetAutoRotate(true)
	o.Update()
	assert.NotEqual(t, before, cam.Position)
	assert.InDelta(t, 2.7, cam.Position.Len(), 1e-4)
}
