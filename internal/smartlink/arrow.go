package smartlink

import "github.com/ProjectAether/navlink/pkg/core"

// Arrow is the endpoint marker attached to a proxy. Its relative location is
// the authoritative position of the endpoint.
type Arrow struct {
	Name     string
	Size     float64
	position core.Vector3
}

// NewArrow creates an arrow at the given local position.
func NewArrow(name string, at core.Vector3) *Arrow {
	return &Arrow{Name: name, Size: 1.0, position: at}
}

// LocalPosition returns the arrow's position relative to its proxy.
func (a *Arrow) LocalPosition() core.Vector3 {
	return a.position
}

// SetLocalPosition moves the arrow relative to its proxy.
func (a *Arrow) SetLocalPosition(v core.Vector3) {
	a.position = v
}

// Snapshot implements Modifiable.
func (a *Arrow) Snapshot() any {
	return a.position
}

// Restore implements Modifiable.
func (a *Arrow) Restore(snapshot any) {
	if v, ok := snapshot.(core.Vector3); ok {
		a.position = v
	}
}
