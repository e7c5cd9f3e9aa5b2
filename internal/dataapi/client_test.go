package dataapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certidesk/internal/config"
	"certidesk/internal/domain"
)

func record() *domain.ContactRecord {
	return domain.ContactSubmission{
		CompanyName:  "Acme SpA",
		CompanyRut:   "76.123.456-7",
		ContactName:  "Jane Doe",
		ContactEmail: "JANE@ACME.CL",
		ContactPhone: "+56911112222",
		Needs:        "Need e-signature",
	}.ToRecord()
}

func TestInsertContact(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/tabla_contacto", r.URL.Path)
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":17,"estado":"nuevo","fecha_creacion":"2026-10-19T14:03:11.52+00:00"}]`))
	}))
	defer srv.Close()

	client := NewClient(config.DataAPIConfig{URL: srv.URL + "/", Key: "service-key", Timeout: 5 * time.Second})
	rec := record()

	id, err := client.InsertContact(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, uint(17), id)
	assert.Equal(t, uint(17), rec.ID)
	assert.Equal(t, "nuevo", rec.Status)
	assert.Equal(t, time.Date(2026, 10, 19, 14, 3, 11, 520000000, time.UTC), rec.CreatedAt)

	assert.Equal(t, "Acme SpA", got["nombre_empresa"])
	assert.Equal(t, "jane@acme.cl", got["email_contacto"])
	assert.Equal(t, "nuevo", got["estado"])
	assert.Nil(t, got["giro_empresa"])
	assert.NotContains(t, got, "id")
	assert.NotContains(t, got, "fecha_creacion")
}

func TestInsertContactRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	client := NewClient(config.DataAPIConfig{URL: srv.URL, Key: "wrong", Timeout: 5 * time.Second})

	_, err := client.InsertContact(context.Background(), record())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestInsertContactWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(config.DataAPIConfig{URL: srv.URL, Key: "k", Timeout: 5 * time.Second})

	_, err := client.InsertContact(context.Background(), record())
	require.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2026, 10, 19, 14, 3, 11, 0, time.UTC)

	assert.Equal(t, want, parseTimestamp("2026-10-19T14:03:11Z"))
	assert.Equal(t, want, parseTimestamp("2026-10-19T11:03:11-03:00"))
	assert.Equal(t, want, parseTimestamp("2026-10-19T14:03:11"))
	assert.WithinDuration(t, time.Now(), parseTimestamp("garbage"), time.Minute)
}

func TestEnsureSchemaAndCloseAreNoops(t *testing.T) {
	client := NewClient(config.DataAPIConfig{URL: "http://127.0.0.1:1", Key: "k"})

	assert.NoError(t, client.EnsureSchema(context.Background()))
	assert.NoError(t, client.Close())
}
