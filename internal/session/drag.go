package session

import "github.com/Faultbox/tangible/pkg/math"

type dragState struct {
	mesh       int
	initProxy  math.Mat4
	initObject math.Mat4
}

// DragTransform returns the placement of a dragged mesh. The rotation the
// proxy went through since the grab is applied about the grab point, then
// the proxy's translation since the grab is added on top.
func DragTransform(initProxy, curProxy, initObject math.Mat4) math.Mat4 {
	start := initProxy.Translation()
	delta := curProxy.Translation().Sub(start)

	rot := curProxy.Rotation().Mul(initProxy.Rotation().Inverse())
	aboutGrab := math.TranslateVec(start).Mul(rot).Mul(math.TranslateVec(start.Neg()))

	return math.TranslateVec(delta).Mul(aboutGrab).Mul(initObject)
}

// updateDrag recomputes the dragged mesh's placement from the current proxy
// transform. It returns the mesh index, or false when nothing is dragged.
func (s *Session) updateDrag(proxy math.Mat4) (int, bool) {
	if s.state != Dragging {
		return -1, false
	}
	s.objects.SetTransform(s.drag.mesh, DragTransform(s.drag.initProxy, proxy, s.drag.initObject))
	return s.drag.mesh, true
}
