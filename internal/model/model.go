// Package model holds the gorm table definitions for persisted links.
package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels lists every table migrated by the gorm backends.
var DatabaseModels = []any{
	&ExtensionInfo{},
	&NavLink{},
	&NavLinkRevision{},
}

// ExtensionInfo records which extension build created the schema.
type ExtensionInfo struct {
	gorm.Model
	ExtensionName    string `json:"extensionName" gorm:"size:64"`
	ExtensionVersion string `json:"extensionVersion" gorm:"size:32"`
}

// NavLink is the latest state of one proxy's navigation link.
type NavLink struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Proxy     string    `json:"proxy" gorm:"size:128;index:idx_nav_links_level_proxy"`
	Level     string    `json:"level" gorm:"size:128;index:idx_nav_links_level_proxy"`
	StartX    float64   `json:"startX"`
	StartY    float64   `json:"startY"`
	StartZ    float64   `json:"startZ"`
	EndX      float64   `json:"endX"`
	EndY      float64   `json:"endY"`
	EndZ      float64   `json:"endZ"`
	Direction string    `json:"direction" gorm:"size:16"`
	// Geometry is the link as an XYZ LineString in WKB.
	Geometry  []byte         `json:"geometry"`
	LengthCm  float64        `json:"lengthCm"`
	Settings  datatypes.JSON `json:"settings"`
	Revision  uint64         `json:"revision"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt" gorm:"autoUpdateTime:false"`
}

// NavLinkRevision is the append-only history of link changes.
type NavLinkRevision struct {
	ID         uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	LinkID     string         `json:"linkId" gorm:"size:36;index"`
	Proxy      string         `json:"proxy" gorm:"size:128"`
	Revision   uint64         `json:"revision"`
	Geometry   []byte         `json:"geometry"`
	Settings   datatypes.JSON `json:"settings"`
	Deleted    bool           `json:"deleted"`
	RecordedAt time.Time      `json:"recordedAt" gorm:"index"`
}
