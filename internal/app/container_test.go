package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certidesk/internal/config"
)

const submission = `{
	"companyName": "Acme SpA",
	"companyRut": "76.123.456-7",
	"contactName": "Jane Doe",
	"contactEmail": "jane@acme.cl",
	"contactPhone": "+56911112222",
	"needs": "Need e-signature"
}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{Name: "CERTIDESK Contact API", Version: "test"},
		Database: config.DatabaseConfig{
			URL:            "sqlite:///" + filepath.Join(t.TempDir(), "leads.db"),
			ConnectTimeout: 5 * time.Second,
			IdleTimeout:    time.Second,
			EnsureSchema:   true,
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		},
		Notify: config.NotifyConfig{
			Provider:  config.ProviderConsole,
			FromEmail: "no-reply@certidesk.cl",
			FromName:  "CERTIDESK",
			ToEmail:   "sales@certidesk.cl",
			Timezone:  "UTC",
		},
	}
}

func newServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv := httptest.NewServer(NewContainer(cfg, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestIntakeEndToEnd(t *testing.T) {
	srv := newServer(t, testConfig(t))

	status, body := postJSON(t, srv.URL+ContactPath, submission)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["id"])

	status, body = postJSON(t, srv.URL+LegacyContactPath, submission)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, float64(2), body["id"])

	status, body = postJSON(t, srv.URL+ContactPath, `{"companyName":"Acme SpA"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "needs")
}

func TestIntakeWithoutStoreConfiguration(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.URL = ""
	srv := newServer(t, cfg)

	status, body := postJSON(t, srv.URL+ContactPath, submission)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, map[string]any{"success": false, "error": "server configuration is incomplete"}, body)
}

func TestNotifyEndToEnd(t *testing.T) {
	srv := newServer(t, testConfig(t))

	status, body := postJSON(t, srv.URL+NotifyPath, submission)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"success": true, "message": "Notification sent"}, body)

	status, _ = postJSON(t, srv.URL+LegacyNotifyPath, submission)
	assert.Equal(t, http.StatusOK, status)
}

func TestNotifyWithoutProviderConfiguration(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notify.Provider = config.ProviderSendGrid
	srv := newServer(t, cfg)

	status, body := postJSON(t, srv.URL+NotifyPath, submission)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, map[string]any{"success": false, "error": "notification service is not configured"}, body)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(t, testConfig(t))

	resp, err := http.Get(srv.URL + HealthPath)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	postJSON(t, srv.URL+ContactPath, submission)

	resp, err = http.Get(srv.URL + MetricsPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "contact_submissions_total")
}
