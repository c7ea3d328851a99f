// Package metrics instrumenta el motor de respaldos con Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/jhoicas/Respaldo-api/internal/application/backup"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "respaldo"

// Valores de la etiqueta result.
const (
	ResultOK    = "ok"
	ResultError = "error"
	// ResultCritical fallo de restauración de sistema posterior al borrado de la base.
	ResultCritical = "critical"
)

var _ backup.Metrics = (*BackupCollector)(nil)

// BackupCollector prometheus.Collector con los contadores del motor.
type BackupCollector struct {
	operations        *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	cleanupDeleted    prometheus.Counter
	cleanupFileErrors prometheus.Counter
}

// NewBackupCollector crea el colector y lo registra en reg.
func NewBackupCollector(reg prometheus.Registerer) *BackupCollector {
	c := &BackupCollector{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backup_operations_total",
				Help:      "Operaciones de respaldo por tipo, alcance y resultado.",
			}, []string{"operation", "scope", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backup_operation_duration_seconds",
				Help:      "Duración de las operaciones de respaldo.",
				Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 300, 900},
			}, []string{"operation", "scope"},
		),
		cleanupDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backup_cleanup_deleted_total",
				Help:      "Entradas de catálogo eliminadas por retención.",
			},
		),
		cleanupFileErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backup_cleanup_file_errors_total",
				Help:      "Archivos que la retención no pudo borrar.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(c)
	}
	return c
}

// ObserveOperation registra una captura, restauración o borrado.
func (c *BackupCollector) ObserveOperation(operation string, scope entity.BackupType, d time.Duration, err error) {
	c.operations.WithLabelValues(operation, string(scope), resultLabel(err)).Inc()
	c.duration.WithLabelValues(operation, string(scope)).Observe(d.Seconds())
}

// ObserveCleanup registra una pasada de retención.
func (c *BackupCollector) ObserveCleanup(deleted, failedFiles int) {
	c.cleanupDeleted.Add(float64(deleted))
	c.cleanupFileErrors.Add(float64(failedFiles))
}

// Describe is part of the prometheus.Collector interface.
func (c *BackupCollector) Describe(ch chan<- *prometheus.Desc) {
	c.operations.Describe(ch)
	c.duration.Describe(ch)
	c.cleanupDeleted.Describe(ch)
	c.cleanupFileErrors.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *BackupCollector) Collect(ch chan<- prometheus.Metric) {
	c.operations.Collect(ch)
	c.duration.Collect(ch)
	c.cleanupDeleted.Collect(ch)
	c.cleanupFileErrors.Collect(ch)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrSystemRestore):
		return ResultCritical
	default:
		return ResultError
	}
}
