package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"certidesk/internal/domain"
	"certidesk/internal/logging"
	apperrors "certidesk/pkg/errors"
)

// Notifier emails the team about a submission
type Notifier interface {
	Notify(ctx context.Context, sub domain.ContactSubmission) error
}

// NotifyHandler serves the notification endpoint
type NotifyHandler struct {
	service Notifier
	log     *logrus.Entry
}

// NewNotifyHandler creates a new notification handler
func NewNotifyHandler(service Notifier, logger logrus.FieldLogger) *NotifyHandler {
	return &NotifyHandler{
		service: service,
		log:     logging.Component(logger, "notifier"),
	}
}

// Handle sends the notification. The submission is already stored by the
// time this runs, so a delivery failure answers 200 with success false.
func (h *NotifyHandler) Handle(ctx context.Context, req *Request) *Response {
	if req.Method != http.MethodPost {
		return methodNotAllowed()
	}

	var sub domain.ContactSubmission
	if err := decodeBody(req.Body, &sub); err != nil {
		return h.fail(apperrors.Validation(err))
	}

	err := h.service.Notify(ctx, sub)
	if err == nil {
		return JSON(http.StatusOK, NotifyResponse{Success: true, Message: "Notification sent"})
	}

	if apperrors.IsUpstream(err) {
		appErr := apperrors.As(err)
		detail := appErr.Message
		if appErr.Err != nil {
			detail = appErr.Err.Error()
		}
		return JSON(http.StatusOK, NotifyResponse{
			Success: false,
			Message: "Notification failed but submission was saved",
			Error:   detail,
		})
	}
	return h.fail(err)
}

func (h *NotifyHandler) fail(err error) *Response {
	appErr := apperrors.As(err)
	logFailure(h.log, appErr)
	return JSON(appErr.StatusCode(), ErrorResponse{Success: false, Error: appErr.Message})
}
