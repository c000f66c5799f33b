package core

import "strings"

// Field identifies which proxy property an editor changed.
type Field uint8

const (
	FieldOther Field = iota
	FieldMagnitude
	FieldSnapMode
	FieldAcrossAxis
	FieldUnitsToCm
	FieldAcrossExtraCm
	FieldAutoSnapOnChange
	FieldLinkStartLocal
	FieldLinkEndLocal
)

var fieldNames = map[Field]string{
	FieldOther:            "Other",
	FieldMagnitude:        "Magnitude",
	FieldSnapMode:         "SnapMode",
	FieldAcrossAxis:       "AcrossAxis",
	FieldUnitsToCm:        "UnitsToCm",
	FieldAcrossExtraCm:    "AcrossExtraCm",
	FieldAutoSnapOnChange: "AutoSnapOnChange",
	FieldLinkStartLocal:   "LinkStartLocal",
	FieldLinkEndLocal:     "LinkEndLocal",
}

func (f Field) String() string {
	if s, ok := fieldNames[f]; ok {
		return s
	}
	return "Other"
}

// IsEndpoint reports whether f is one of the two endpoint position fields.
func (f Field) IsEndpoint() bool {
	return f == FieldLinkStartLocal || f == FieldLinkEndLocal
}

// ParseField maps a property name to a Field. The editor's "b" prefix for
// booleans is accepted. Unrecognized names map to FieldOther.
func ParseField(s string) Field {
	key := normalizeName(s)
	if key == "bautosnaponchange" {
		key = "autosnaponchange"
	}
	for f, name := range fieldNames {
		if strings.ToLower(name) == key {
			return f
		}
	}
	return FieldOther
}
