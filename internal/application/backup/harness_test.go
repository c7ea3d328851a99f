package backup_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jhoicas/Respaldo-api/internal/application/backup"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/jhoicas/Respaldo-api/internal/infrastructure/filecatalog"
	"github.com/jhoicas/Respaldo-api/internal/infrastructure/storage"
	"github.com/jhoicas/Respaldo-api/pkg/logger"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockArchiver pg_dump/psql simulados.
type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Dump(ctx context.Context, destPath string) error {
	return m.Called(ctx, destPath).Error(0)
}

func (m *mockArchiver) Restore(ctx context.Context, srcPath string) error {
	return m.Called(ctx, srcPath).Error(0)
}

// failingCatalog catálogo real con fallo forzado en el alta.
type failingCatalog struct {
	*filecatalog.Catalog
}

func (failingCatalog) Append(context.Context, *entity.Backup) error {
	return errors.New("disco lleno")
}

// stubbornStore FileStore real que se niega a borrar un archivo concreto.
type stubbornStore struct {
	*storage.FileStore
	keep string
}

func (s stubbornStore) Remove(filename string) error {
	if filename == s.keep {
		return errors.New("permiso denegado")
	}
	return s.FileStore.Remove(filename)
}

type harness struct {
	dir       string
	db        *memDB
	store     *storage.FileStore
	catalog   *filecatalog.Catalog
	archiver  *mockArchiver
	capture   *backup.CaptureUseCase
	restore   *backup.RestoreUseCase
	catalogUC *backup.CatalogUseCase
	retention *backup.RetentionUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	require.NoError(t, err)
	cat, err := filecatalog.New(filepath.Join(dir, "metadata.json"))
	require.NoError(t, err)

	h := &harness{
		dir:      dir,
		db:       newMemDB(),
		store:    store,
		catalog:  cat,
		archiver: &mockArchiver{},
	}
	log := logger.Nop()
	h.capture = backup.NewCaptureUseCase(cat, h.db, store, h.archiver, nil, log)
	h.restore = backup.NewRestoreUseCase(cat, h.db, store, h.archiver, nil, log)
	h.catalogUC = backup.NewCatalogUseCase(cat, store, nil, log)
	h.retention = backup.NewRetentionUseCase(cat, store, nil, log, 30)
	t.Cleanup(func() { h.archiver.AssertExpectations(t) })
	return h
}
