package core

import (
	"fmt"
	"strings"
)

// Magnitude is a named traversal distance class.
type Magnitude uint8

const (
	Jump36 Magnitude = iota
	Jump48
	Jump72
	Jump96
	Jump128
	Jump160
	Jump200
	Jump256
	Jump348
	Across128
	Across256
)

var magnitudeNames = map[Magnitude]string{
	Jump36:    "Jump36",
	Jump48:    "Jump48",
	Jump72:    "Jump72",
	Jump96:    "Jump96",
	Jump128:   "Jump128",
	Jump160:   "Jump160",
	Jump200:   "Jump200",
	Jump256:   "Jump256",
	Jump348:   "Jump348",
	Across128: "Across128",
	Across256: "Across256",
}

// Magnitudes lists every magnitude in declaration order.
var Magnitudes = []Magnitude{
	Jump36, Jump48, Jump72, Jump96, Jump128, Jump160,
	Jump200, Jump256, Jump348, Across128, Across256,
}

func (m Magnitude) String() string {
	if s, ok := magnitudeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Magnitude(%d)", uint8(m))
}

// ParseMagnitude accepts "Jump96", "jump 96" or "JUMP_96".
func ParseMagnitude(s string) (Magnitude, error) {
	key := normalizeName(s)
	for m, name := range magnitudeNames {
		if strings.ToLower(name) == key {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown magnitude %q", s)
}

// SnapMode selects how the end marker is offset from the start marker.
type SnapMode uint8

const (
	SnapNone SnapMode = iota
	SnapUp
	SnapDown
	SnapAcross
)

func (m SnapMode) String() string {
	switch m {
	case SnapNone:
		return "None"
	case SnapUp:
		return "Up"
	case SnapDown:
		return "Down"
	case SnapAcross:
		return "Across"
	}
	return fmt.Sprintf("SnapMode(%d)", uint8(m))
}

// ParseSnapMode parses a snap mode display name. "Manual" is an alias for None.
func ParseSnapMode(s string) (SnapMode, error) {
	key := normalizeName(s)
	if i := strings.IndexByte(key, '('); i > 0 {
		key = key[:i]
	}
	switch key {
	case "none", "manual":
		return SnapNone, nil
	case "up":
		return SnapUp, nil
	case "down":
		return SnapDown, nil
	case "across":
		return SnapAcross, nil
	}
	return 0, fmt.Errorf("unknown snap mode %q", s)
}

// AcrossAxis is the horizontal direction used by SnapAcross.
type AcrossAxis uint8

const (
	AxisForward AcrossAxis = iota
	AxisRight
	AxisLeft
	AxisBackward
)

func (a AcrossAxis) String() string {
	switch a {
	case AxisForward:
		return "Forward"
	case AxisRight:
		return "Right"
	case AxisLeft:
		return "Left"
	case AxisBackward:
		return "Backward"
	}
	return fmt.Sprintf("AcrossAxis(%d)", uint8(a))
}

// ParseAcrossAxis parses an axis display name such as "Forward" or "Left (-Y)".
func ParseAcrossAxis(s string) (AcrossAxis, error) {
	key := normalizeName(s)
	if i := strings.IndexByte(key, '('); i > 0 {
		key = key[:i]
	}
	switch key {
	case "forward":
		return AxisForward, nil
	case "right":
		return AxisRight, nil
	case "left":
		return AxisLeft, nil
	case "backward":
		return AxisBackward, nil
	}
	return 0, fmt.Errorf("unknown across axis %q", s)
}

// LinkDirection is the traversal direction of a navigation link.
type LinkDirection uint8

const (
	BothWays LinkDirection = iota
	LeftToRight
	RightToLeft
)

func (d LinkDirection) String() string {
	switch d {
	case BothWays:
		return "BothWays"
	case LeftToRight:
		return "LeftToRight"
	case RightToLeft:
		return "RightToLeft"
	}
	return fmt.Sprintf("LinkDirection(%d)", uint8(d))
}

func (d LinkDirection) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *LinkDirection) UnmarshalText(b []byte) error {
	switch normalizeName(string(b)) {
	case "bothways":
		*d = BothWays
	case "lefttoright":
		*d = LeftToRight
	case "righttoleft":
		*d = RightToLeft
	default:
		return fmt.Errorf("unknown link direction %q", b)
	}
	return nil
}

// HostContext is the execution context of the host.
type HostContext uint8

const (
	Editable HostContext = iota
	Running
)

func (c HostContext) String() string {
	if c == Running {
		return "Running"
	}
	return "Editable"
}

// normalizeName lowercases and strips spaces, underscores and dashes.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}
