package entity

import (
	"fmt"
	"time"
)

// BackupType alcance sobre el que opera un respaldo.
type BackupType string

const (
	BackupTypeSystem BackupType = "system"
	BackupTypeTenant BackupType = "tenant"
	BackupTypeUser   BackupType = "user"
)

// BackupTypes lista cerrada de alcances válidos (orden estable para estadísticas).
var BackupTypes = []BackupType{BackupTypeSystem, BackupTypeTenant, BackupTypeUser}

// ParseBackupType valida un tipo recibido desde HTTP o CLI.
func ParseBackupType(s string) (BackupType, error) {
	switch BackupType(s) {
	case BackupTypeSystem, BackupTypeTenant, BackupTypeUser:
		return BackupType(s), nil
	}
	return "", fmt.Errorf("tipo de respaldo desconocido: %q", s)
}

// Backup registro del catálogo. Inmutable una vez creado; solo se elimina.
type Backup struct {
	ID              string
	Type            BackupType
	ScopeEntityID   string // tenant o usuario; vacío para system
	ScopeEntityName string
	Filename        string
	SizeBytes       int64
	CreatedAt       time.Time
	Description     string
}

// OlderThan informa si el respaldo fue creado antes del corte.
func (b *Backup) OlderThan(cutoff time.Time) bool {
	return b.CreatedAt.Before(cutoff)
}

// Scope destino de una captura o restauración.
type Scope struct {
	Type BackupType
	ID   string
}

func SystemScope() Scope { return Scope{Type: BackupTypeSystem} }

func TenantScope(id string) Scope { return Scope{Type: BackupTypeTenant, ID: id} }

func UserScope(id string) Scope { return Scope{Type: BackupTypeUser, ID: id} }

// IsSystem informa si el alcance es la base completa.
func (s Scope) IsSystem() bool { return s.Type == BackupTypeSystem }

func (s Scope) String() string {
	if s.ID == "" {
		return string(s.Type)
	}
	return string(s.Type) + ":" + s.ID
}

// Validate exige id para tenant/user y lo prohíbe para system.
func (s Scope) Validate() error {
	switch s.Type {
	case BackupTypeSystem:
		if s.ID != "" {
			return fmt.Errorf("el alcance system no admite id")
		}
	case BackupTypeTenant, BackupTypeUser:
		if s.ID == "" {
			return fmt.Errorf("el alcance %s requiere id", s.Type)
		}
	default:
		return fmt.Errorf("tipo de respaldo desconocido: %q", s.Type)
	}
	return nil
}

// Matches compara el alcance registrado en el respaldo con el destino pedido.
func (b *Backup) Matches(s Scope) bool {
	return b.Type == s.Type && b.ScopeEntityID == s.ID
}
