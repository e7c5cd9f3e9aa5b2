// Package app wires configuration, stores, mailers and handlers together.
package app

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	goahttp "goa.design/goa/v3/http"

	"certidesk/internal/config"
	"certidesk/internal/database"
	"certidesk/internal/dataapi"
	"certidesk/internal/handlers"
	"certidesk/internal/metrics"
	"certidesk/internal/services"
	apperrors "certidesk/pkg/errors"
)

// Route paths. The legacy function paths stay mounted so existing forms
// keep working.
const (
	ContactPath       = "/api/v1/contact"
	NotifyPath        = "/api/v1/contact/notify"
	LegacyContactPath = "/.netlify/functions/guardar-contacto"
	LegacyNotifyPath  = "/.netlify/functions/notify-new-contact"
	HealthPath        = "/health"
	MetricsPath       = "/metrics"
)

// Container holds all application dependencies. It keeps no connection
// open; every submission acquires and releases its own store.
type Container struct {
	Config              *config.Config
	Logger              *logrus.Logger
	ContactService      *services.ContactService
	NotificationService *services.NotificationService

	// Contact and Notify are the fully decorated handlers
	Contact handlers.HandlerFunc
	Notify  handlers.HandlerFunc
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *logrus.Logger) *Container {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	c.ContactService = services.NewContactService(c.openStore, cfg.Database.EnsureSchema, logger)
	c.NotificationService = services.NewNotificationService(cfg.Notify, services.NewMailer(cfg.Notify, logger), logger)

	decorate := func(h handlers.HandlerFunc) handlers.HandlerFunc {
		return handlers.Chain(h,
			handlers.SecurityHeaders(),
			handlers.CORS(cfg.CORS),
			handlers.Recover(logger),
		)
	}
	c.Contact = decorate(handlers.NewContactHandler(c.ContactService, logger).Handle)
	c.Notify = decorate(handlers.NewNotifyHandler(c.NotificationService, logger).Handle)

	return c
}

// openStore picks the backend from configuration at call time
func (c *Container) openStore(ctx context.Context) (services.ContactStore, error) {
	switch c.Config.StoreBackend() {
	case config.BackendSQL:
		store, err := database.OpenContactStore(ctx, c.Config.Database, c.Logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendDataAPI:
		return dataapi.NewClient(c.Config.DataAPI), nil
	}
	return nil, apperrors.Configuration("DATABASE_URL or DATA_API_URL and DATA_API_KEY")
}

// Handler builds the HTTP handler serving every route
func (c *Container) Handler() http.Handler {
	mux := goahttp.NewMuxer()

	handlers.Mount(mux, ContactPath, c.Contact)
	handlers.Mount(mux, LegacyContactPath, c.Contact)
	handlers.Mount(mux, NotifyPath, c.Notify)
	handlers.Mount(mux, LegacyNotifyPath, c.Notify)
	mux.Handle(http.MethodGet, HealthPath, handlers.HealthHandler(c.Config.App.Name, c.Config.App.Version))

	// Routes /metrics to Prometheus and everything else to the muxer
	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == MetricsPath {
			promhttp.Handler().ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})

	return handlers.RequestLogging(c.Logger, metrics.PrometheusMiddleware(root))
}
