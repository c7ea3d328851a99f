package dto

import "time"

// CreateBackupRequest entrada para crear un respaldo.
type CreateBackupRequest struct {
	Description string `json:"description" validate:"omitempty,max=500"`
}

// BackupResponse salida de un registro del catálogo.
type BackupResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	EntityID    string    `json:"entity_id,omitempty"`
	EntityName  string    `json:"entity_name,omitempty"`
	Filename    string    `json:"filename"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description,omitempty"`
}

// RestoreRequest confirmación explícita: sin confirm=true no se restaura nada.
type RestoreRequest struct {
	Confirm bool `json:"confirm" validate:"required"`
}

// RestoreResult resultado de una restauración.
type RestoreResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DeleteBackupResponse resultado de eliminar un respaldo.
type DeleteBackupResponse struct {
	Success bool `json:"success"`
}

// CleanupRequest días a conservar; 0 usa el valor configurado.
type CleanupRequest struct {
	DaysToKeep int `json:"days_to_keep" validate:"omitempty,min=1,max=3650"`
}

// CleanupResult resultado del barrido de retención.
type CleanupResult struct {
	DeletedCount int      `json:"deleted_count"`
	Message      string   `json:"message"`
	FailedFiles  []string `json:"failed_files,omitempty"`
}

// ReconcileRequest purge=true borra los archivos huérfanos además de reportarlos.
type ReconcileRequest struct {
	Purge bool `json:"purge"`
}

// ReconcileResult archivos sin entrada de catálogo.
type ReconcileResult struct {
	Orphans []string `json:"orphans"`
	Purged  bool     `json:"purged"`
}

// BackupStatistics resumen del catálogo.
type BackupStatistics struct {
	Total          int            `json:"total"`
	ByType         map[string]int `json:"by_type"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	TotalSizeMB    float64        `json:"total_size_mb"`
	Oldest         *time.Time     `json:"oldest,omitempty"`
	Newest         *time.Time     `json:"newest,omitempty"`
}
