package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Backup(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BACKUP_DIR", dir)
	t.Setenv("BACKUP_TIMEOUT_SECONDS", "90")
	t.Setenv("BACKUP_RETENTION_DAYS", "7")
	t.Setenv("BACKUP_CATALOG_DRIVER", "postgres")
	t.Setenv("BACKUP_PURGE_ORPHANS", "true")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("PG_DUMP_PATH", "/usr/lib/postgresql/16/bin/pg_dump")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Backup.Dir)
	assert.Equal(t, 90*time.Second, cfg.Backup.OperationTimeout)
	assert.Equal(t, 7, cfg.Backup.RetentionDays)
	assert.Equal(t, CatalogDriverPostgres, cfg.Backup.CatalogDriver)
	assert.True(t, cfg.Backup.PurgeOrphans)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/usr/lib/postgresql/16/bin/pg_dump", cfg.Backup.PgDumpPath)
}

func TestLoad_CatalogoJuntoALosRespaldos(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BACKUP_DIR", dir)
	// vacía equivale a no definida
	t.Setenv("BACKUP_CATALOG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "metadata.json"), cfg.Backup.CatalogFile)
}

func TestLoad_Invalida(t *testing.T) {
	for name, env := range map[string][2]string{
		"driver":    {"BACKUP_CATALOG_DRIVER", "s3"},
		"retención": {"BACKUP_RETENTION_DAYS", "0"},
		"timeout":   {"BACKUP_TIMEOUT_SECONDS", "-1"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv("BACKUP_DIR", t.TempDir())
			t.Setenv(env[0], env[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5433, User: "app", Password: "p@ss:w/rd", DBName: "business", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5433/business?sslmode=require", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())

	c.DatabaseURL = "postgresql://u:p@h/x"
	assert.Equal(t, "postgresql://u:p@h/x", c.ConnectionString())
}

func TestHTTPConfig_Addr(t *testing.T) {
	assert.Equal(t, "0.0.0.0:8080", HTTPConfig{Host: "0.0.0.0", Port: 8080}.Addr())
}
