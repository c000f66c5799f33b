package smartlink

import "github.com/ProjectAether/navlink/pkg/core"

// SnapEndToMagnitude moves the end marker to the configured distance from the
// start marker and refreshes the link. It does nothing when the snap mode is
// None, a marker is missing, or the distance would not be positive.
func (p *Proxy) SnapEndToMagnitude() {
	if p.context != core.Editable {
		return
	}

	p.tracker.Begin("Snap " + p.Name)
	defer p.tracker.End()

	p.tracker.Modify(p)
	if m, ok := p.StartArrow.(Modifiable); ok {
		p.tracker.Modify(m)
	}
	if m, ok := p.EndArrow.(Modifiable); ok {
		p.tracker.Modify(m)
	}

	end, ok := p.snappedEnd()
	if !ok {
		return
	}

	p.EndArrow.SetLocalPosition(end)
	p.UpdateLinkNow()
}

// snappedEnd computes the end position for the current settings.
func (p *Proxy) snappedEnd() (core.Vector3, bool) {
	s := p.Settings
	if s.SnapMode == core.SnapNone || p.StartArrow == nil || p.EndArrow == nil {
		return core.Vector3{}, false
	}
	if s.UnitsToCm <= 0 {
		return core.Vector3{}, false
	}
	units := UnitDistance(s.Magnitude)
	if units <= 0 {
		return core.Vector3{}, false
	}

	base := units * s.UnitsToCm

	// Always offset from the start marker, never from the previous end.
	end := p.StartArrow.LocalPosition()

	switch s.SnapMode {
	case core.SnapUp:
		end.Z += base
	case core.SnapDown:
		end.Z -= base
	case core.SnapAcross:
		end = end.Add(AcrossOffset(s.AcrossAxis, base+s.AcrossExtraCm))
	default:
		return core.Vector3{}, false
	}
	return end, true
}

// PostEditChange reacts to an editor changing one of the proxy's fields.
// It has no effect once the proxy is running.
func (p *Proxy) PostEditChange(field core.Field) {
	if p.context != core.Editable {
		return
	}

	p.PointLinks = nil

	if field.IsEndpoint() {
		p.UpdateLinkNow()
		return
	}

	if !p.Settings.AutoSnapOnChange {
		if isTraversalField(field) || field == core.FieldAutoSnapOnChange {
			p.UpdateLinkNow()
		}
		return
	}

	if isTraversalField(field) {
		p.SnapEndToMagnitude()
	}
}

func isTraversalField(f core.Field) bool {
	switch f {
	case core.FieldMagnitude, core.FieldSnapMode, core.FieldAcrossAxis,
		core.FieldUnitsToCm, core.FieldAcrossExtraCm:
		return true
	}
	return false
}
