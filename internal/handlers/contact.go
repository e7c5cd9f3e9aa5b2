package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	goa "goa.design/goa/v3/pkg"

	"certidesk/internal/domain"
	"certidesk/internal/logging"
	"certidesk/internal/metrics"
	apperrors "certidesk/pkg/errors"
)

// ContactSubmitter saves contact form submissions
type ContactSubmitter interface {
	Submit(ctx context.Context, sub domain.ContactSubmission) (*domain.ContactRecord, error)
}

// ContactHandler serves the intake endpoint
type ContactHandler struct {
	service ContactSubmitter
	log     *logrus.Entry
}

// NewContactHandler creates a new intake handler
func NewContactHandler(service ContactSubmitter, logger logrus.FieldLogger) *ContactHandler {
	return &ContactHandler{
		service: service,
		log:     logging.Component(logger, "intake"),
	}
}

// Handle accepts a POSTed submission and answers 201 with the stored record
func (h *ContactHandler) Handle(ctx context.Context, req *Request) *Response {
	if req.Method != http.MethodPost {
		metrics.RecordContactRejection(metrics.RejectionMethod)
		return methodNotAllowed()
	}

	var sub domain.ContactSubmission
	if err := decodeBody(req.Body, &sub); err != nil {
		return h.fail(apperrors.Validation(err))
	}

	rec, err := h.service.Submit(ctx, sub)
	if err != nil {
		return h.fail(err)
	}

	return JSON(http.StatusCreated, ContactCreatedResponse{
		Success: true,
		Message: "Contact request saved",
		ID:      rec.ID,
		Data:    rec,
	})
}

func (h *ContactHandler) fail(err error) *Response {
	appErr := apperrors.As(err)
	metrics.RecordContactRejection(rejectionReason(appErr))
	logFailure(h.log, appErr)
	return JSON(appErr.StatusCode(), ErrorResponse{Success: false, Error: appErr.Message})
}

func rejectionReason(appErr *apperrors.AppError) string {
	switch appErr.Code {
	case apperrors.ErrCodeValidation:
		return metrics.RejectionValidation
	case apperrors.ErrCodeConfiguration:
		return metrics.RejectionConfiguration
	case apperrors.ErrCodeUpstream:
		return metrics.RejectionStorage
	default:
		return metrics.RejectionInternal
	}
}

// decodeBody parses a JSON object body into v
func decodeBody(body []byte, v any) error {
	if len(body) == 0 {
		return goa.DecodePayloadError("request body is empty")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return goa.DecodePayloadError("request body must be a JSON object")
	}
	return nil
}

// logFailure logs client mistakes quietly and server faults with their cause
func logFailure(log *logrus.Entry, appErr *apperrors.AppError) {
	entry := log.WithField("code", appErr.Code)
	if appErr.Code == apperrors.ErrCodeValidation {
		entry.WithField("reason", appErr.Message).Info("Request rejected")
		return
	}
	if appErr.Err != nil {
		entry = entry.WithError(appErr.Err)
	}
	entry.Error(appErr.Message)
}
