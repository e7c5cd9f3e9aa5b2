package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"certidesk/internal/config"
	"certidesk/internal/domain"
	"certidesk/internal/metrics"
)

// ContactStore persists leads through a direct SQL connection
type ContactStore struct {
	db *gorm.DB
}

// OpenContactStore opens a store whose connection lives until Close
func OpenContactStore(ctx context.Context, cfg config.DatabaseConfig, log logrus.FieldLogger) (*ContactStore, error) {
	db, err := Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return NewContactStore(db), nil
}

// NewContactStore wraps an open connection
func NewContactStore(db *gorm.DB) *ContactStore {
	return &ContactStore{db: db}
}

// EnsureSchema creates the contact table if absent
func (s *ContactStore) EnsureSchema(ctx context.Context) error {
	start := time.Now()
	err := EnsureSchema(ctx, s.db)
	metrics.RecordDBQuery("ensure_schema", time.Since(start), err)
	return err
}

// InsertContact inserts one record and returns the generated identifier.
// rec is updated with the identifier, timestamp and status that were stored.
func (s *ContactStore) InsertContact(ctx context.Context, rec *domain.ContactRecord) (uint, error) {
	start := time.Now()
	err := s.db.WithContext(ctx).Create(rec).Error
	metrics.RecordDBQuery("insert", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to insert contact: %w", err)
	}
	return rec.ID, nil
}

// Close releases the connection
func (s *ContactStore) Close() error {
	return Close(s.db)
}
