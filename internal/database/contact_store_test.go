package database

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certidesk/internal/config"
	"certidesk/internal/domain"
)

func testConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		URL:            "sqlite:///" + filepath.Join(t.TempDir(), "leads.db"),
		ConnectTimeout: 5 * time.Second,
		IdleTimeout:    time.Second,
	}
}

func openTestStore(t *testing.T, cfg config.DatabaseConfig) *ContactStore {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	store, err := OpenContactStore(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func submission() domain.ContactSubmission {
	return domain.ContactSubmission{
		CompanyName:  "Acme SpA",
		CompanyRut:   "76.123.456-7",
		ContactName:  "Jane Doe",
		ContactEmail: "JANE@ACME.CL",
		ContactPhone: "+56911112222",
		Needs:        "Need e-signature",
	}
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		store := openTestStore(t, cfg)
		require.NoError(t, store.EnsureSchema(ctx), "run %d", i)
		require.NoError(t, store.Close())
	}

	store := openTestStore(t, cfg)
	assert.True(t, store.db.Migrator().HasTable(domain.ContactTableName))
	assert.True(t, store.db.Migrator().HasIndex(&domain.ContactRecord{}, "idx_tabla_contacto_email"))
}

func TestInsertContactReturnsIncreasingIDs(t *testing.T) {
	store := openTestStore(t, testConfig(t))
	ctx := context.Background()
	require.NoError(t, store.EnsureSchema(ctx))

	var last uint
	for i := 0; i < 5; i++ {
		rec := submission().ToRecord()
		id, err := store.InsertContact(ctx, rec)
		require.NoError(t, err)
		assert.Greater(t, id, last)
		assert.Equal(t, id, rec.ID)
		assert.Equal(t, domain.StatusNew, rec.Status)
		assert.False(t, rec.CreatedAt.IsZero())
		last = id
	}

	var count int64
	require.NoError(t, store.db.Table(domain.ContactTableName).Count(&count).Error)
	assert.Equal(t, int64(5), count)
}

func TestInsertContactStoresColumns(t *testing.T) {
	store := openTestStore(t, testConfig(t))
	ctx := context.Background()
	require.NoError(t, store.EnsureSchema(ctx))

	s := submission()
	s.CompanyName = strings.Repeat("x", 300)
	id, err := store.InsertContact(ctx, s.ToRecord())
	require.NoError(t, err)

	var row struct {
		NombreEmpresa        string
		EmailContacto        string
		Estado               string
		GiroEmpresa          *string
		InformacionAdicional *string
	}
	err = store.db.Raw(
		`SELECT nombre_empresa, email_contacto, estado, giro_empresa, informacion_adicional FROM tabla_contacto WHERE id = ?`, id,
	).Scan(&row).Error
	require.NoError(t, err)

	assert.Len(t, row.NombreEmpresa, 255)
	assert.Equal(t, "jane@acme.cl", row.EmailContacto)
	assert.Equal(t, "nuevo", row.Estado)
	assert.Nil(t, row.GiroEmpresa)
	assert.Nil(t, row.InformacionAdicional)
}

func TestInsertContactWithoutSchemaFails(t *testing.T) {
	store := openTestStore(t, testConfig(t))

	_, err := store.InsertContact(context.Background(), submission().ToRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert contact")
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{URL: "mysql://localhost/leads"}, logrus.New())
	require.Error(t, err)
}
