package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"certidesk/internal/domain"
)

var schemaIndexes = []string{"idx_tabla_contacto_email", "idx_tabla_contacto_fecha"}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS ` + domain.ContactTableName + ` (
    id SERIAL PRIMARY KEY,
    nombre_empresa VARCHAR(255) NOT NULL,
    rut_empresa VARCHAR(20) NOT NULL,
    cantidad_empleados VARCHAR(50),
    giro_empresa VARCHAR(255),
    nombre_contacto VARCHAR(255) NOT NULL,
    telefono_contacto VARCHAR(50),
    email_contacto VARCHAR(255) NOT NULL,
    sistema_actual TEXT,
    necesidades TEXT NOT NULL,
    informacion_adicional TEXT,
    fecha_creacion TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    estado VARCHAR(20) NOT NULL DEFAULT 'nuevo'
)`,
	`CREATE INDEX IF NOT EXISTS idx_tabla_contacto_email ON ` + domain.ContactTableName + ` (email_contacto)`,
	`CREATE INDEX IF NOT EXISTS idx_tabla_contacto_fecha ON ` + domain.ContactTableName + ` (fecha_creacion)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS ` + domain.ContactTableName + ` (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    nombre_empresa VARCHAR(255) NOT NULL,
    rut_empresa VARCHAR(20) NOT NULL,
    cantidad_empleados VARCHAR(50),
    giro_empresa VARCHAR(255),
    nombre_contacto VARCHAR(255) NOT NULL,
    telefono_contacto VARCHAR(50),
    email_contacto VARCHAR(255) NOT NULL,
    sistema_actual TEXT,
    necesidades TEXT NOT NULL,
    informacion_adicional TEXT,
    fecha_creacion DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    estado VARCHAR(20) NOT NULL DEFAULT 'nuevo'
)`,
	`CREATE INDEX IF NOT EXISTS idx_tabla_contacto_email ON ` + domain.ContactTableName + ` (email_contacto)`,
	`CREATE INDEX IF NOT EXISTS idx_tabla_contacto_fecha ON ` + domain.ContactTableName + ` (fecha_creacion)`,
}

// EnsureSchema creates the contact table and its indexes when absent. Safe
// to run on every invocation.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	statements := sqliteSchema
	if db.Dialector.Name() == "postgres" {
		statements = postgresSchema
	}

	tx := db.WithContext(ctx)
	migrator := tx.Migrator()

	// Concurrent CREATE ... IF NOT EXISTS can still collide on Postgres
	// catalogs; the loser finds the object already there.
	if err := tx.Exec(statements[0]).Error; err != nil && !migrator.HasTable(domain.ContactTableName) {
		return fmt.Errorf("failed to create %s: %w", domain.ContactTableName, err)
	}
	for i, stmt := range statements[1:] {
		if err := tx.Exec(stmt).Error; err != nil && !migrator.HasIndex(&domain.ContactRecord{}, schemaIndexes[i]) {
			return fmt.Errorf("failed to create index %s: %w", schemaIndexes[i], err)
		}
	}
	return nil
}
