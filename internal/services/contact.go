package services

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"certidesk/internal/domain"
	"certidesk/internal/logging"
	"certidesk/internal/metrics"
	apperrors "certidesk/pkg/errors"
)

// ContactStore is the persistence target for leads. Implementations hold at
// most one connection, released by Close.
type ContactStore interface {
	EnsureSchema(ctx context.Context) error
	InsertContact(ctx context.Context, rec *domain.ContactRecord) (uint, error)
	Close() error
}

// StoreOpener acquires a store for the duration of one submission
type StoreOpener func(ctx context.Context) (ContactStore, error)

// ContactService validates and persists contact form submissions
type ContactService struct {
	open         StoreOpener
	ensureSchema bool
	validate     *validator.Validate
	log          *logrus.Entry
}

// NewContactService creates a new contact service. With ensureSchema the
// table is created if absent before every insert.
func NewContactService(open StoreOpener, ensureSchema bool, logger logrus.FieldLogger) *ContactService {
	return &ContactService{
		open:         open,
		ensureSchema: ensureSchema,
		validate:     newValidator(),
		log:          logging.Component(logger, "contact"),
	}
}

// Submit validates, normalizes and inserts one submission. All missing
// required fields are reported together.
func (s *ContactService) Submit(ctx context.Context, sub domain.ContactSubmission) (*domain.ContactRecord, error) {
	trimmed := sub.Trimmed()

	if err := checkRequired(s.validate, trimmed); err != nil {
		return nil, apperrors.Validation(err)
	}
	if err := checkEmail(s.validate, trimmed.ContactEmail); err != nil {
		return nil, apperrors.Validation(err)
	}

	rec := trimmed.ToRecord()
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"id":      rec.ID,
		"company": rec.CompanyName,
	}).Info("Contact saved")
	metrics.RecordContactSubmission()

	return rec, nil
}

// save runs the store work inside one acquired connection
func (s *ContactService) save(ctx context.Context, rec *domain.ContactRecord) error {
	store, err := s.open(ctx)
	if err != nil {
		if apperrors.IsConfiguration(err) {
			return err
		}
		return apperrors.Upstream("could not connect to storage", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			s.log.WithError(cerr).Warn("Failed to close store")
		}
	}()

	if s.ensureSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			return apperrors.Upstream("could not prepare storage", err)
		}
	}

	if _, err := store.InsertContact(ctx, rec); err != nil {
		return apperrors.Upstream("could not save the request", err)
	}
	return nil
}
