// Package gormstorage stores links in any gorm database. It keeps the
// latest row of every link plus an append-only revision history.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ProjectAether/navlink/internal/database"
	"github.com/ProjectAether/navlink/internal/model"
	"github.com/ProjectAether/navlink/internal/model/convert"
	"github.com/ProjectAether/navlink/pkg/core"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoDatabase is returned when a backend is used without a connection.
var ErrNoDatabase = errors.New("no database connection")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB               *gorm.DB
	Logger           *slog.Logger
	ExtensionName    string
	ExtensionVersion string
}

// Backend writes link records synchronously through gorm.
type Backend struct {
	deps Dependencies
	now  func() time.Time
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps, now: time.Now}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the link tables.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}
	b.deps.Logger.Info("Migrating schema", "dialect", b.deps.DB.Name())
	if err := database.Migrate(b.deps.DB, b.deps.ExtensionName, b.deps.ExtensionVersion); err != nil {
		return err
	}
	b.deps.Logger.Info("Database setup complete")
	return nil
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}

// SaveLink upserts a link unless the stored row already has a newer revision.
func (b *Backend) SaveLink(r *core.LinkRecord) error {
	return b.Apply([]core.LinkRecord{*r})
}

// DeleteLink removes a link and records the deletion in its history.
func (b *Backend) DeleteLink(id string) error {
	return b.Apply([]core.LinkRecord{{ID: id, Deleted: true}})
}

// Apply writes a batch of saves and tombstones in one transaction, in order.
func (b *Backend) Apply(records []core.LinkRecord) error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}
	if len(records) == 0 {
		return nil
	}
	return b.deps.DB.Transaction(func(tx *gorm.DB) error {
		for i := range records {
			var err error
			if records[i].Deleted {
				err = b.deleteTx(tx, records[i])
			} else {
				err = saveTx(tx, records[i])
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Links returns every stored link ordered by level and proxy.
func (b *Backend) Links() ([]core.LinkRecord, error) {
	if b.deps.DB == nil {
		return nil, ErrNoDatabase
	}
	var rows []model.NavLink
	if err := b.deps.DB.Order("level, proxy").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read links: %w", err)
	}
	out := make([]core.LinkRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := convert.NavLinkToCore(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Revisions returns the history of one link, oldest first.
func (b *Backend) Revisions(id string) ([]model.NavLinkRevision, error) {
	if b.deps.DB == nil {
		return nil, ErrNoDatabase
	}
	var rows []model.NavLinkRevision
	err := b.deps.DB.Where("link_id = ?", id).Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read revisions of %s: %w", id, err)
	}
	return rows, nil
}

func saveTx(tx *gorm.DB, r core.LinkRecord) error {
	var current model.NavLink
	err := tx.Select("revision").Where("id = ?", r.ID).Take(&current).Error
	switch {
	case err == nil:
		if current.Revision >= r.Revision {
			return nil
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("failed to read link %s: %w", r.ID, err)
	}

	row, err := convert.CoreToNavLink(r)
	if err != nil {
		return err
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(linkUpdateColumns),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save link %s: %w", r.ID, err)
	}

	rev, err := convert.CoreToRevision(r)
	if err != nil {
		return err
	}
	if err := tx.Create(&rev).Error; err != nil {
		return fmt.Errorf("failed to record revision of %s: %w", r.ID, err)
	}
	return nil
}

func (b *Backend) deleteTx(tx *gorm.DB, r core.LinkRecord) error {
	var current model.NavLink
	err := tx.Where("id = ?", r.ID).Take(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read link %s: %w", r.ID, err)
	}

	if err := tx.Delete(&model.NavLink{}, "id = ?", r.ID).Error; err != nil {
		return fmt.Errorf("failed to delete link %s: %w", r.ID, err)
	}

	recordedAt := r.UpdatedAt
	if recordedAt.IsZero() {
		recordedAt = b.now().UTC()
	}
	return tx.Create(&model.NavLinkRevision{
		LinkID:     current.ID,
		Proxy:      current.Proxy,
		Revision:   current.Revision,
		Geometry:   current.Geometry,
		Settings:   current.Settings,
		Deleted:    true,
		RecordedAt: recordedAt,
	}).Error
}

var linkUpdateColumns = []string{
	"proxy", "level",
	"start_x", "start_y", "start_z", "end_x", "end_y", "end_z",
	"direction", "geometry", "length_cm", "settings", "revision", "updated_at",
}
