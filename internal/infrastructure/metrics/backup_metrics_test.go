package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jhoicas/Respaldo-api/internal/application/backup"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupCollector_ObserveOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewBackupCollector(reg)

	c.ObserveOperation(backup.OpCapture, entity.BackupTypeTenant, 120*time.Millisecond, nil)
	c.ObserveOperation(backup.OpCapture, entity.BackupTypeTenant, 80*time.Millisecond, nil)
	c.ObserveOperation(backup.OpRestore, entity.BackupTypeUser, time.Second, errors.New("boom"))
	c.ObserveOperation(backup.OpRestore, entity.BackupTypeSystem, time.Second,
		fmt.Errorf("%w: %w", domain.ErrSystemRestore, domain.ErrExternalTool))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.operations.WithLabelValues(backup.OpCapture, "tenant", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues(backup.OpRestore, "user", ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues(backup.OpRestore, "system", ResultCritical)))

	// 3 series de operaciones, 3 de duración y 2 contadores de limpieza
	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestBackupCollector_ObserveCleanup(t *testing.T) {
	c := NewBackupCollector(prometheus.NewRegistry())

	c.ObserveCleanup(3, 1)
	c.ObserveCleanup(2, 0)

	assert.Equal(t, 5.0, testutil.ToFloat64(c.cleanupDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cleanupFileErrors))
}

func TestNewBackupCollector_NilRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		c := NewBackupCollector(nil)
		c.ObserveOperation(backup.OpDelete, entity.BackupTypeSystem, time.Millisecond, nil)
	})
}
