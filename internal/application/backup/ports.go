package backup

import (
	"context"
	"time"

	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/jhoicas/Respaldo-api/internal/domain/repository"
)

// SnapshotTxRunner ejecuta lecturas y restauraciones dentro de transacciones de BD.
type SnapshotTxRunner interface {
	// RunSnapshot abre una transacción de solo lectura con una vista consistente de todas las tablas.
	RunSnapshot(ctx context.Context, fn func(r repository.SnapshotReader) error) error
	// RunRestore confirma solo si fn no devuelve error; cualquier fallo revierte todo.
	RunRestore(ctx context.Context, fn func(w repository.SnapshotWriter) error) error
}

// SnapshotStore archivos de respaldo en disco, por nombre relativo al directorio de respaldos.
type SnapshotStore interface {
	// Write escribe el snapshot de forma atómica y devuelve el tamaño final.
	Write(ctx context.Context, filename string, snap *entity.Snapshot) (int64, error)
	Read(ctx context.Context, filename string) (*entity.Snapshot, error)
	// Path ruta absoluta del archivo (para el archivador de sistema).
	Path(filename string) string
	Size(filename string) (int64, error)
	// Remove no falla si el archivo ya no existe.
	Remove(filename string) error
	List(ctx context.Context) ([]string, error)
}

// SystemArchiver volcado y restauración nativos de la base completa.
type SystemArchiver interface {
	Dump(ctx context.Context, destPath string) error
	// Restore es destructivo: borra la base, la recrea vacía y reproduce el volcado.
	Restore(ctx context.Context, srcPath string) error
}

// Metrics instrumentación de las operaciones del motor.
type Metrics interface {
	ObserveOperation(operation string, scope entity.BackupType, d time.Duration, err error)
	ObserveCleanup(deleted, failedFiles int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, entity.BackupType, time.Duration, error) {}
func (nopMetrics) ObserveCleanup(int, int)                                          {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

// Nombres de operación para métricas.
const (
	OpCapture = "capture"
	OpRestore = "restore"
	OpDelete  = "delete"
)
