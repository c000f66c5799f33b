package core

import "time"

// PointLink is the legacy single-point link form. Smart-link proxies keep
// their list of these empty.
type PointLink struct {
	Left      Vector3
	Right     Vector3
	Direction LinkDirection
}

// LinkData is what a navigation consumer receives for a smart link.
type LinkData struct {
	Start     Vector3       `json:"start"`
	End       Vector3       `json:"end"`
	Direction LinkDirection `json:"direction"`
}

// LinkSettings mirrors the traversal settings of a proxy at the time a
// record was taken.
type LinkSettings struct {
	Magnitude        string  `json:"magnitude"`
	SnapMode         string  `json:"snapMode"`
	AcrossAxis       string  `json:"acrossAxis"`
	AutoSnapOnChange bool    `json:"autoSnapOnChange"`
	UnitsToCm        float64 `json:"unitsToCm"`
	AcrossExtraCm    float64 `json:"acrossExtraCm"`
}

// LinkRecord is a persisted snapshot of one proxy's navigation link.
type LinkRecord struct {
	ID        string       `json:"id"`
	Proxy     string       `json:"proxy"`
	Level     string       `json:"level"`
	Link      LinkData     `json:"link"`
	Settings  LinkSettings `json:"settings"`
	Revision  uint64       `json:"revision"`
	UpdatedAt time.Time    `json:"updatedAt"`
	// Deleted marks a tombstone published when the proxy is removed.
	Deleted bool `json:"deleted,omitempty"`
}
