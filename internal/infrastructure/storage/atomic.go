package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
)

const writeChunk = 1 << 20

// WriteFileAtomic escribe en un temporal del mismo directorio y lo reemplaza de forma atómica.
// Un lector nunca ve un archivo a medio escribir. ctx se revisa entre bloques.
func WriteFileAtomic(ctx context.Context, path string, data []byte, perm os.FileMode) error {
	base := filepath.Base(path)
	t, err := renameio.TempFile(filepath.Dir(path), path)
	if err != nil {
		return fmt.Errorf("crear temporal: %w", err)
	}
	// sin efecto después de CloseAtomicallyReplace
	defer func() { _ = t.Cleanup() }()

	for off := 0; off < len(data); off += writeChunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(off+writeChunk, len(data))
		if _, err := t.Write(data[off:end]); err != nil {
			return fmt.Errorf("escribir %s: %w", base, err)
		}
	}
	if err := t.Chmod(perm); err != nil {
		return fmt.Errorf("permisos %s: %w", base, err)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("reemplazar %s: %w", base, err)
	}
	return nil
}
