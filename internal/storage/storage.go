// Package storage defines where published link records end up.
package storage

import "github.com/ProjectAether/navlink/pkg/core"

// Backend is the interface all storage implementations must satisfy.
// Records for one link arrive in publish order; a record with Deleted set
// is delivered through DeleteLink.
type Backend interface {
	Init() error
	Close() error

	SaveLink(r *core.LinkRecord) error
	DeleteLink(id string) error

	// Links returns the latest stored state of every live link.
	Links() ([]core.LinkRecord, error)
}

// Exportable is an optional interface for backends that write a file
// when they close.
type Exportable interface {
	ExportedFilePath() string
}
