package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jhoicas/Respaldo-api/internal/application/backup"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
)

var _ backup.SnapshotStore = (*FileStore)(nil)

// FileStore archivos de respaldo en un directorio local.
type FileStore struct {
	dir string
}

// NewFileStore crea el directorio si no existe.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: crear directorio %s: %v", domain.ErrBackupIO, dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir directorio raíz de los respaldos.
func (s *FileStore) Dir() string { return s.dir }

// Path ruta del archivo dentro del directorio de respaldos.
func (s *FileStore) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

// Write serializa y escribe el snapshot de forma atómica. Nunca sobrescribe un respaldo existente.
func (s *FileStore) Write(ctx context.Context, filename string, snap *entity.Snapshot) (int64, error) {
	if err := checkName(filename); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return 0, fmt.Errorf("%w: serializar %s: %v", domain.ErrBackupIO, filename, err)
	}
	path := s.Path(filename)
	if _, err := os.Lstat(path); err == nil {
		return 0, fmt.Errorf("%w: el archivo %s ya existe", domain.ErrBackupIO, filename)
	}
	if err := WriteFileAtomic(ctx, path, data, 0o600); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrBackupIO, err)
	}
	return s.Size(filename)
}

// Read carga y decodifica un snapshot.
func (s *FileStore) Read(ctx context.Context, filename string) (*entity.Snapshot, error) {
	if err := checkName(filename); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: el archivo %s no existe", domain.ErrBackupIO, filename)
		}
		return nil, fmt.Errorf("%w: leer %s: %v", domain.ErrBackupIO, filename, err)
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptSnapshot, filename, err)
	}
	return snap, nil
}

// Size tamaño en bytes del archivo.
func (s *FileStore) Size(filename string) (int64, error) {
	if err := checkName(filename); err != nil {
		return 0, err
	}
	fi, err := os.Stat(s.Path(filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: el archivo %s no existe", domain.ErrBackupIO, filename)
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrBackupIO, err)
	}
	return fi.Size(), nil
}

// Remove borra el archivo; que ya no exista no es error.
func (s *FileStore) Remove(filename string) error {
	if err := checkName(filename); err != nil {
		return err
	}
	if err := os.Remove(s.Path(filename)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: eliminar %s: %v", domain.ErrBackupIO, filename, err)
	}
	return nil
}

// List nombres de archivos de respaldo del directorio (ignora temporales y el catálogo).
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: listar %s: %v", domain.ErrBackupIO, s.dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && isBackupFile(e.Name()) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func isBackupFile(name string) bool {
	if !strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".sql") {
		return false
	}
	for _, t := range entity.BackupTypes {
		if strings.HasPrefix(name, string(t)+"_") {
			return true
		}
	}
	return false
}

func checkName(filename string) error {
	if filename == "" || filename == "." || filename == ".." || filepath.Base(filename) != filename {
		return fmt.Errorf("%w: nombre de archivo inválido %q", domain.ErrBackupIO, filename)
	}
	return nil
}
