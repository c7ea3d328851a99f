package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")

	// Taxonomía del motor de respaldos.
	ErrScopeMismatch      = errors.New("el respaldo no corresponde al alcance solicitado")
	ErrBackupIO           = errors.New("fallo de E/S en archivo de respaldo")
	ErrRestoreTransaction = errors.New("la restauración falló y fue revertida")
	ErrExternalTool       = errors.New("fallo de herramienta externa de base de datos")

	// ErrCorruptSnapshot es un ErrBackupIO: el archivo existe pero su contenido no es utilizable.
	ErrCorruptSnapshot = fmt.Errorf("%w: contenido de respaldo inválido", ErrBackupIO)

	// ErrSystemRestore marca un fallo posterior al borrado de la base completa.
	// No hay rollback posible: requiere intervención manual.
	ErrSystemRestore = errors.New("restauración de sistema incompleta, la base de datos puede haber quedado vacía")
)
