// Package dataapi stores leads through a PostgREST-style remote data API
// authenticated with a bearer key, for deployments without a direct
// database connection.
package dataapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"certidesk/internal/config"
	"certidesk/internal/domain"
	"certidesk/internal/metrics"
)

const maxErrorBody = 512

// Client inserts contact rows through the data API
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

// NewClient creates a data API client
func NewClient(cfg config.DataAPIConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		key:        cfg.Key,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// row mirrors the table columns
type row struct {
	ID                   uint    `json:"id,omitempty"`
	NombreEmpresa        string  `json:"nombre_empresa"`
	RutEmpresa           string  `json:"rut_empresa"`
	CantidadEmpleados    *string `json:"cantidad_empleados"`
	GiroEmpresa          *string `json:"giro_empresa"`
	NombreContacto       string  `json:"nombre_contacto"`
	TelefonoContacto     *string `json:"telefono_contacto"`
	EmailContacto        string  `json:"email_contacto"`
	SistemaActual        *string `json:"sistema_actual"`
	Necesidades          string  `json:"necesidades"`
	InformacionAdicional *string `json:"informacion_adicional"`
	FechaCreacion        string  `json:"fecha_creacion,omitempty"`
	Estado               string  `json:"estado"`
}

// EnsureSchema is a no-op: the remote side owns the schema
func (c *Client) EnsureSchema(ctx context.Context) error {
	return nil
}

// InsertContact inserts one record and returns the identifier assigned by
// the remote store
func (c *Client) InsertContact(ctx context.Context, rec *domain.ContactRecord) (uint, error) {
	start := time.Now()
	id, err := c.insert(ctx, rec)
	metrics.RecordDBQuery("insert", time.Since(start), err)
	return id, err
}

func (c *Client) insert(ctx context.Context, rec *domain.ContactRecord) (uint, error) {
	status := rec.Status
	if status == "" {
		status = domain.StatusNew
	}
	body, err := json.Marshal(row{
		NombreEmpresa:        rec.CompanyName,
		RutEmpresa:           rec.CompanyRut,
		CantidadEmpleados:    rec.EmployeeCount,
		GiroEmpresa:          rec.Industry,
		NombreContacto:       rec.ContactName,
		TelefonoContacto:     rec.ContactPhone,
		EmailContacto:        rec.ContactEmail,
		SistemaActual:        rec.CurrentSystem,
		Necesidades:          rec.Needs,
		InformacionAdicional: rec.AdditionalInfo,
		Estado:               status,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode contact: %w", err)
	}

	endpoint := c.baseURL + "/rest/v1/" + domain.ContactTableName
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build data API request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("data API request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read data API response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("data API returned %d: %s", resp.StatusCode, clip(payload))
	}

	var rows []row
	if err := json.Unmarshal(payload, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode data API response: %w", err)
	}
	if len(rows) == 0 || rows[0].ID == 0 {
		return 0, fmt.Errorf("data API response did not include the generated id")
	}

	rec.ID = rows[0].ID
	rec.Status = rows[0].Estado
	if rec.Status == "" {
		rec.Status = status
	}
	rec.CreatedAt = parseTimestamp(rows[0].FechaCreacion)
	return rec.ID, nil
}

// Close is a no-op; requests do not hold a connection between calls
func (c *Client) Close() error {
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05",
}

// parseTimestamp accepts the layouts Postgres emits for timestamp and
// timestamptz columns; unparseable values fall back to now
func parseTimestamp(value string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

func clip(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
