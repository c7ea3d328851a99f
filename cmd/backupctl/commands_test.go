package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jhoicas/Respaldo-api/internal/application/dto"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine registra las llamadas recibidas.
type fakeEngine struct {
	scope    entity.Scope
	desc     string
	backupID string
	days     int
	purge    bool
	typ      entity.BackupType
	restored bool
	closed   bool
	err      error
}

func (f *fakeEngine) Create(_ context.Context, scope entity.Scope, desc string) (*dto.BackupResponse, error) {
	f.scope, f.desc = scope, desc
	return &dto.BackupResponse{ID: "b1", Type: string(scope.Type), EntityID: scope.ID}, f.err
}

func (f *fakeEngine) Restore(_ context.Context, scope entity.Scope, id string) (*dto.RestoreResult, error) {
	f.scope, f.backupID, f.restored = scope, id, true
	if f.err != nil {
		return &dto.RestoreResult{Success: false, Message: f.err.Error()}, f.err
	}
	return &dto.RestoreResult{Success: true, Message: "ok"}, nil
}

func (f *fakeEngine) List(_ context.Context, typ entity.BackupType) ([]*dto.BackupResponse, error) {
	f.typ = typ
	return []*dto.BackupResponse{{
		ID: "b1", Type: "tenant", EntityID: "t1", EntityName: "Acme",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}, nil
}

func (f *fakeEngine) Delete(_ context.Context, id string) (*dto.DeleteBackupResponse, error) {
	f.backupID = id
	return &dto.DeleteBackupResponse{Success: true}, nil
}

func (f *fakeEngine) Statistics(context.Context) (*dto.BackupStatistics, error) {
	return &dto.BackupStatistics{Total: 4}, nil
}

func (f *fakeEngine) ReconcileOrphans(_ context.Context, purge bool) (*dto.ReconcileResult, error) {
	f.purge = purge
	return &dto.ReconcileResult{Orphans: []string{}, Purged: purge}, nil
}

func (f *fakeEngine) Cleanup(_ context.Context, days int) (*dto.CleanupResult, error) {
	f.days = days
	return &dto.CleanupResult{DeletedCount: 2}, nil
}

func execute(t *testing.T, f *fakeEngine, args ...string) (string, error) {
	t.Helper()
	opened := false
	root := newRootCmd(func(context.Context) (*services, error) {
		opened = true
		return &services{
			creator: f, restorer: f, catalog: f, retention: f,
			timeout: time.Minute,
			close:   func() { f.closed = true },
		}, nil
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	if opened {
		assert.True(t, f.closed, "los servicios deben cerrarse al terminar")
	}
	return out.String(), err
}

func TestCreate(t *testing.T) {
	f := &fakeEngine{}
	out, err := execute(t, f, "create", "tenant", "t1", "-d", "antes de migrar")
	require.NoError(t, err)
	assert.Equal(t, entity.TenantScope("t1"), f.scope)
	assert.Equal(t, "antes de migrar", f.desc)
	assert.Contains(t, out, `"id": "b1"`)
}

func TestCreate_ScopeInvalido(t *testing.T) {
	for _, args := range [][]string{
		{"create", "tenant"},
		{"create", "system", "x"},
		{"create", "company", "c1"},
	} {
		_, err := execute(t, &fakeEngine{}, args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestList(t *testing.T) {
	f := &fakeEngine{}
	out, err := execute(t, f, "list", "--type", "tenant")
	require.NoError(t, err)
	assert.Equal(t, entity.BackupTypeTenant, f.typ)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "2026-01-02T03:04:05Z")
}

func TestRestore_RequiereYes(t *testing.T) {
	f := &fakeEngine{}
	_, err := execute(t, f, "restore", "tenant", "t1", "b1")
	assert.ErrorIs(t, err, errNotConfirmed)
	assert.False(t, f.restored)
}

func TestRestore(t *testing.T) {
	f := &fakeEngine{}
	_, err := execute(t, f, "restore", "user", "u1", "b7", "--yes")
	require.NoError(t, err)
	assert.Equal(t, entity.UserScope("u1"), f.scope)
	assert.Equal(t, "b7", f.backupID)

	f = &fakeEngine{}
	_, err = execute(t, f, "restore", "system", "s1", "--yes")
	require.NoError(t, err)
	assert.Equal(t, entity.SystemScope(), f.scope)
	assert.Equal(t, "s1", f.backupID)
}

func TestRestore_PropagaError(t *testing.T) {
	f := &fakeEngine{err: domain.ErrScopeMismatch}
	out, err := execute(t, f, "restore", "tenant", "t1", "b1", "--yes")
	assert.ErrorIs(t, err, domain.ErrScopeMismatch)
	assert.Contains(t, out, `"success": false`)
}

func TestMantenimiento(t *testing.T) {
	f := &fakeEngine{}
	_, err := execute(t, f, "cleanup", "--days", "7")
	require.NoError(t, err)
	assert.Equal(t, 7, f.days)

	_, err = execute(t, f, "reconcile", "--purge")
	require.NoError(t, err)
	assert.True(t, f.purge)

	_, err = execute(t, f, "delete", "b3")
	require.NoError(t, err)
	assert.Equal(t, "b3", f.backupID)

	out, err := execute(t, f, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, `"total": 4`)
}
