// Package convert maps link records to and from their gorm models.
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/ProjectAether/navlink/internal/geo"
	"github.com/ProjectAether/navlink/internal/model"
	"github.com/ProjectAether/navlink/pkg/core"
	"gorm.io/datatypes"
)

// CoreToNavLink converts a link record to its table row.
func CoreToNavLink(r core.LinkRecord) (model.NavLink, error) {
	settings, err := json.Marshal(r.Settings)
	if err != nil {
		return model.NavLink{}, fmt.Errorf("marshal settings: %w", err)
	}
	geometry, err := geo.LinkToWKB(r.Link)
	if err != nil {
		return model.NavLink{}, fmt.Errorf("link %s: %w", r.ID, err)
	}
	return model.NavLink{
		ID:        r.ID,
		Proxy:     r.Proxy,
		Level:     r.Level,
		StartX:    r.Link.Start.X,
		StartY:    r.Link.Start.Y,
		StartZ:    r.Link.Start.Z,
		EndX:      r.Link.End.X,
		EndY:      r.Link.End.Y,
		EndZ:      r.Link.End.Z,
		Direction: r.Link.Direction.String(),
		Geometry:  geometry,
		LengthCm:  geo.Length3D(r.Link),
		Settings:  datatypes.JSON(settings),
		Revision:  r.Revision,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

// CoreToRevision converts a link record to a history row.
func CoreToRevision(r core.LinkRecord) (model.NavLinkRevision, error) {
	settings, err := json.Marshal(r.Settings)
	if err != nil {
		return model.NavLinkRevision{}, fmt.Errorf("marshal settings: %w", err)
	}
	geometry, err := geo.LinkToWKB(r.Link)
	if err != nil {
		return model.NavLinkRevision{}, fmt.Errorf("link %s: %w", r.ID, err)
	}
	return model.NavLinkRevision{
		LinkID:     r.ID,
		Proxy:      r.Proxy,
		Revision:   r.Revision,
		Geometry:   geometry,
		Settings:   datatypes.JSON(settings),
		Deleted:    r.Deleted,
		RecordedAt: r.UpdatedAt,
	}, nil
}

// NavLinkToCore converts a table row back to a link record. Coordinates are
// read from the columns; the WKB geometry is only checked when they are absent.
func NavLinkToCore(m model.NavLink) (core.LinkRecord, error) {
	rec := core.LinkRecord{
		ID:        m.ID,
		Proxy:     m.Proxy,
		Level:     m.Level,
		Revision:  m.Revision,
		UpdatedAt: m.UpdatedAt.UTC(),
		Link: core.LinkData{
			Start: core.Vector3{X: m.StartX, Y: m.StartY, Z: m.StartZ},
			End:   core.Vector3{X: m.EndX, Y: m.EndY, Z: m.EndZ},
		},
	}

	if rec.Link.Start == (core.Vector3{}) && rec.Link.End == (core.Vector3{}) && len(m.Geometry) > 0 {
		link, err := geo.LinkFromWKB(m.Geometry)
		if err != nil {
			return core.LinkRecord{}, fmt.Errorf("link %s: %w", m.ID, err)
		}
		rec.Link.Start, rec.Link.End = link.Start, link.End
	}

	if m.Direction != "" {
		if err := rec.Link.Direction.UnmarshalText([]byte(m.Direction)); err != nil {
			return core.LinkRecord{}, fmt.Errorf("link %s: %w", m.ID, err)
		}
	}

	if len(m.Settings) > 0 {
		if err := json.Unmarshal(m.Settings, &rec.Settings); err != nil {
			return core.LinkRecord{}, fmt.Errorf("link %s settings: %w", m.ID, err)
		}
	}
	return rec, nil
}
