// interfaces.go: this code defines the interface for the media record store
package datastore

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/john-samurai/birdtag-go/internal/conf"
	"github.com/john-samurai/birdtag-go/internal/errors"
	"github.com/john-samurai/birdtag-go/internal/logging"
	"github.com/john-samurai/birdtag-go/internal/media"
)

// Interface abstracts the underlying database implementation and defines the
// operations available on the media record store.
//
// The store is keyed by (owner_id, id). Upsert replaces the whole record,
// last write wins; GetAll is a full scan, the baseline query mechanism for
// the tag engines. An indexed backend may be substituted without changing
// match semantics.
type Interface interface {
	Open() error
	Close() error
	Upsert(record *media.MediaRecord) error
	Get(ownerID, id string) (media.MediaRecord, error)
	GetAll() ([]media.MediaRecord, error)
	GetByURL(url string) (media.MediaRecord, error)
	DeleteByURL(url string) (int, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB     *gorm.DB
	logger *slog.Logger
}

// New creates a record store instance based on the enabled backend.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Store.SQLite.Enabled:
		return &SQLiteStore{
			DataStore: DataStore{logger: logging.ForService("datastore")},
			Settings:  settings,
		}
	case settings.Store.MySQL.Enabled:
		return &MySQLStore{
			DataStore: DataStore{logger: logging.ForService("datastore")},
			Settings:  settings,
		}
	default:
		return nil
	}
}

// Upsert writes the whole record, creating it if absent and replacing it
// otherwise. The tag set is written atomically with the rest of the row, so
// readers never observe a partially-updated set.
func (ds *DataStore) Upsert(record *media.MediaRecord) error {
	entity, err := entityFromRecord(record)
	if err != nil {
		return err
	}

	err = ds.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "id"}},
		UpdateAll: true,
	}).Create(entity).Error
	if err != nil {
		return errors.New(fmt.Errorf("upserting record %s/%s: %w", record.OwnerID, record.ID, err)).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return nil
}

// Get retrieves one record by its composite key.
func (ds *DataStore) Get(ownerID, id string) (media.MediaRecord, error) {
	var entity MediaRecordEntity
	err := ds.DB.Where("owner_id = ? AND id = ?", ownerID, id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return media.MediaRecord{}, errors.Newf("record %s/%s not found", ownerID, id).
				Category(errors.CategoryNotFound).
				Component("datastore").
				Build()
		}
		return media.MediaRecord{}, errors.New(fmt.Errorf("getting record %s/%s: %w", ownerID, id, err)).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return entity.toRecord()
}

// GetAll returns every record in store scan order.
func (ds *DataStore) GetAll() ([]media.MediaRecord, error) {
	var entities []MediaRecordEntity
	if err := ds.DB.Find(&entities).Error; err != nil {
		return nil, errors.New(fmt.Errorf("scanning records: %w", err)).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}

	records := make([]media.MediaRecord, 0, len(entities))
	for i := range entities {
		record, err := entities[i].toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// GetByURL returns the record whose file or thumbnail URL equals the given
// url, compared case-insensitively.
func (ds *DataStore) GetByURL(url string) (media.MediaRecord, error) {
	// Video records persist an empty thumbnail URL, so an empty url would
	// match every one of them.
	if strings.TrimSpace(url) == "" {
		return media.MediaRecord{}, errors.Newf("empty url").
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}
	lowered := strings.ToLower(url)
	var entity MediaRecordEntity
	err := ds.DB.Where("LOWER(file_url) = ? OR LOWER(thumb_url) = ?", lowered, lowered).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return media.MediaRecord{}, errors.Newf("no record for url %s", url).
				Category(errors.CategoryNotFound).
				Component("datastore").
				Build()
		}
		return media.MediaRecord{}, errors.New(fmt.Errorf("getting record by url: %w", err)).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return entity.toRecord()
}

// DeleteByURL removes every record whose file or thumbnail URL equals the
// given url and reports how many rows were removed.
func (ds *DataStore) DeleteByURL(url string) (int, error) {
	if strings.TrimSpace(url) == "" {
		return 0, errors.Newf("empty url").
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}
	lowered := strings.ToLower(url)
	result := ds.DB.Where("LOWER(file_url) = ? OR LOWER(thumb_url) = ?", lowered, lowered).
		Delete(&MediaRecordEntity{})
	if result.Error != nil {
		return 0, errors.New(fmt.Errorf("deleting records for url: %w", result.Error)).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Build()
	}
	return int(result.RowsAffected), nil
}

// Close closes the database connection.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db handle: %w", err)
	}
	return sqlDB.Close()
}

// performAutoMigration runs schema migration and logs the outcome.
func performAutoMigration(db *gorm.DB, logger *slog.Logger, backend, dsn string) error {
	start := time.Now()
	if err := db.AutoMigrate(&MediaRecordEntity{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", backend, err)
	}
	if logger != nil {
		logger.Info("database ready",
			"backend", backend,
			"dsn", dsn,
			"migration_ms", time.Since(start).Milliseconds(),
		)
	}
	return nil
}
