package smartlink

import "github.com/ProjectAether/navlink/pkg/core"

// DefaultUnitsToCm converts one traversal unit (an inch) to centimetres.
const DefaultUnitsToCm = 2.54

// Settings holds the traversal configuration of a proxy.
type Settings struct {
	Magnitude        core.Magnitude
	SnapMode         core.SnapMode
	AcrossAxis       core.AcrossAxis
	AutoSnapOnChange bool
	UnitsToCm        float64
	AcrossExtraCm    float64
}

// DefaultSettings returns the settings a freshly placed proxy starts with.
func DefaultSettings() Settings {
	return Settings{
		Magnitude:        core.Jump96,
		SnapMode:         core.SnapUp,
		AcrossAxis:       core.AxisForward,
		AutoSnapOnChange: true,
		UnitsToCm:        DefaultUnitsToCm,
		AcrossExtraCm:    0,
	}
}

// Record converts the settings to their persisted form.
func (s Settings) Record() core.LinkSettings {
	return core.LinkSettings{
		Magnitude:        s.Magnitude.String(),
		SnapMode:         s.SnapMode.String(),
		AcrossAxis:       s.AcrossAxis.String(),
		AutoSnapOnChange: s.AutoSnapOnChange,
		UnitsToCm:        s.UnitsToCm,
		AcrossExtraCm:    s.AcrossExtraCm,
	}
}

var unitDistances = map[core.Magnitude]float64{
	core.Jump36:    36,
	core.Jump48:    48,
	core.Jump72:    72,
	core.Jump96:    96,
	core.Jump128:   128,
	core.Jump160:   160,
	core.Jump200:   200,
	core.Jump256:   256,
	core.Jump348:   348,
	core.Across128: 128,
	core.Across256: 256,
}

// UnitDistance resolves a magnitude to its distance in traversal units.
// Magnitudes outside the table resolve to 0.
func UnitDistance(m core.Magnitude) float64 {
	return unitDistances[m]
}

// AcrossOffset returns the local-frame offset for an across snap of the given
// distance. Unknown axes fall back to forward.
func AcrossOffset(axis core.AcrossAxis, distanceCm float64) core.Vector3 {
	switch axis {
	case core.AxisBackward:
		return core.Vector3{X: -distanceCm}
	case core.AxisRight:
		return core.Vector3{Y: distanceCm}
	case core.AxisLeft:
		return core.Vector3{Y: -distanceCm}
	default:
		return core.Vector3{X: distanceCm}
	}
}

// SettingsFromRecord parses persisted or configured settings.
func SettingsFromRecord(r core.LinkSettings) (Settings, error) {
	m, err := core.ParseMagnitude(r.Magnitude)
	if err != nil {
		return Settings{}, err
	}
	mode, err := core.ParseSnapMode(r.SnapMode)
	if err != nil {
		return Settings{}, err
	}
	axis, err := core.ParseAcrossAxis(r.AcrossAxis)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Magnitude:        m,
		SnapMode:         mode,
		AcrossAxis:       axis,
		AutoSnapOnChange: r.AutoSnapOnChange,
		UnitsToCm:        r.UnitsToCm,
		AcrossExtraCm:    r.AcrossExtraCm,
	}, nil
}
