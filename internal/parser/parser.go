// Package parser turns raw host command arguments into typed requests.
package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ProjectAether/navlink/internal/geo"
	"github.com/ProjectAether/navlink/internal/util"
	"github.com/ProjectAether/navlink/pkg/core"
)

// ErrArgCount is returned when a command has the wrong number of arguments.
var ErrArgCount = errors.New("wrong number of arguments")

// CreateLink is the request to construct a proxy.
type CreateLink struct {
	Name  string
	Start *core.Vector3
	End   *core.Vector3
}

// SetProperty is an editor change to one proxy field. Value holds the
// typed new value: core.Magnitude, core.SnapMode, core.AcrossAxis, bool,
// float64 or core.Vector3 depending on Field.
type SetProperty struct {
	Name  string
	Field core.Field
	Value any
}

// MoveEndpoint is an operator dragging one of the endpoint markers.
type MoveEndpoint struct {
	Name     string
	Field    core.Field
	Position core.Vector3
}

// ParseName parses commands that only take a proxy name.
func ParseName(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: expected 1, got %d", ErrArgCount, len(args))
	}
	name := util.CleanArg(args[0])
	if name == "" {
		return "", errors.New("proxy name is empty")
	}
	return name, nil
}

// ParseCreateLink parses [name] or [name, start, end].
func ParseCreateLink(args []string) (CreateLink, error) {
	switch len(args) {
	case 1:
		name, err := ParseName(args)
		return CreateLink{Name: name}, err
	case 3:
		name, err := ParseName(args[:1])
		if err != nil {
			return CreateLink{}, err
		}
		start, err := geo.Vector3FromString(util.CleanArg(args[1]))
		if err != nil {
			return CreateLink{}, fmt.Errorf("start: %w", err)
		}
		end, err := geo.Vector3FromString(util.CleanArg(args[2]))
		if err != nil {
			return CreateLink{}, fmt.Errorf("end: %w", err)
		}
		return CreateLink{Name: name, Start: &start, End: &end}, nil
	}
	return CreateLink{}, fmt.Errorf("%w: expected 1 or 3, got %d", ErrArgCount, len(args))
}

// ParseSetProperty parses [name, field, value].
func ParseSetProperty(args []string) (SetProperty, error) {
	if len(args) != 3 {
		return SetProperty{}, fmt.Errorf("%w: expected 3, got %d", ErrArgCount, len(args))
	}
	name, err := ParseName(args[:1])
	if err != nil {
		return SetProperty{}, err
	}
	rawField := util.CleanArg(args[1])
	field := core.ParseField(rawField)
	if field == core.FieldOther {
		return SetProperty{}, fmt.Errorf("unknown property %q", rawField)
	}
	value, err := ParseValue(field, util.CleanArg(args[2]))
	if err != nil {
		return SetProperty{}, fmt.Errorf("%s: %w", field, err)
	}
	return SetProperty{Name: name, Field: field, Value: value}, nil
}

// ParseMoveEndpoint parses [name, "start"|"end", position].
func ParseMoveEndpoint(args []string) (MoveEndpoint, error) {
	if len(args) != 3 {
		return MoveEndpoint{}, fmt.Errorf("%w: expected 3, got %d", ErrArgCount, len(args))
	}
	name, err := ParseName(args[:1])
	if err != nil {
		return MoveEndpoint{}, err
	}

	var field core.Field
	switch strings.ToLower(util.CleanArg(args[1])) {
	case "start", "linkstartlocal":
		field = core.FieldLinkStartLocal
	case "end", "linkendlocal":
		field = core.FieldLinkEndLocal
	default:
		return MoveEndpoint{}, fmt.Errorf("unknown endpoint %q", args[1])
	}

	pos, err := geo.Vector3FromString(util.CleanArg(args[2]))
	if err != nil {
		return MoveEndpoint{}, err
	}
	return MoveEndpoint{Name: name, Field: field, Position: pos}, nil
}

// ParseValue parses a raw value for the given field.
func ParseValue(field core.Field, raw string) (any, error) {
	switch field {
	case core.FieldMagnitude:
		return core.ParseMagnitude(raw)
	case core.FieldSnapMode:
		return core.ParseSnapMode(raw)
	case core.FieldAcrossAxis:
		return core.ParseAcrossAxis(raw)
	case core.FieldAutoSnapOnChange:
		return ParseBool(raw)
	case core.FieldUnitsToCm, core.FieldAcrossExtraCm:
		return ParseFloat(raw)
	case core.FieldLinkStartLocal, core.FieldLinkEndLocal:
		return geo.Vector3FromString(raw)
	}
	return nil, fmt.Errorf("property %s is not editable", field)
}

// ParseBool accepts true/false, 1/0 and yes/no.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(util.CleanArg(s)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// ParseFloat parses a possibly quoted number. NaN and infinities are
// rejected so they never reach the snap arithmetic.
func ParseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(util.CleanArg(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}
