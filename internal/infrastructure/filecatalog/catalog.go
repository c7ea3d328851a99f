// Package filecatalog implementa el catálogo de respaldos sobre un único archivo JSON.
//
// Cada operación toma el mutex, relee el archivo y, si escribe, lo reemplaza de forma
// atómica (temporal + rename). Dentro de un proceso no se pierden altas concurrentes;
// para varios procesos sobre el mismo directorio usar el catálogo en PostgreSQL.
package filecatalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/jhoicas/Respaldo-api/internal/domain/repository"
	"github.com/jhoicas/Respaldo-api/internal/infrastructure/storage"
)

var _ repository.BackupCatalogRepository = (*Catalog)(nil)

// record forma persistida de entity.Backup.
type record struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	ScopeEntityID   string    `json:"scopeEntityId,omitempty"`
	ScopeEntityName string    `json:"scopeEntityName,omitempty"`
	Filename        string    `json:"filename"`
	SizeBytes       int64     `json:"sizeBytes"`
	CreatedAt       time.Time `json:"createdAt"`
	Description     string    `json:"description,omitempty"`
}

// Catalog catálogo en archivo.
type Catalog struct {
	path string
	mu   sync.Mutex
}

// New crea el directorio del archivo si hace falta. El archivo se crea en la primera alta.
func New(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("%w: directorio del catálogo: %v", domain.ErrBackupIO, err)
	}
	return &Catalog{path: path}, nil
}

// Append agrega una entrada. id y filename son únicos.
func (c *Catalog) Append(ctx context.Context, b *entity.Backup) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	recs, err := c.load(ctx)
	if err != nil {
		return err
	}
	for _, r := range recs {
		if r.ID == b.ID || r.Filename == b.Filename {
			return fmt.Errorf("%w: respaldo %s / %s", domain.ErrDuplicate, b.ID, b.Filename)
		}
	}
	return c.save(ctx, append(recs, toRecord(b)))
}

// Get devuelve (nil, nil) si el id no existe.
func (c *Catalog) Get(ctx context.Context, id string) (*entity.Backup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	recs, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range recs {
		if r.ID == id {
			return r.toEntity(), nil
		}
	}
	return nil, nil
}

// List entradas (filtradas por tipo si typ no es vacío), más recientes primero.
func (c *Catalog) List(ctx context.Context, typ entity.BackupType) ([]*entity.Backup, error) {
	return c.filter(ctx, func(r record) bool {
		return typ == "" || r.Type == string(typ)
	})
}

// ListForEntity entradas de un tenant o usuario, más recientes primero.
func (c *Catalog) ListForEntity(ctx context.Context, scopeEntityID string) ([]*entity.Backup, error) {
	return c.filter(ctx, func(r record) bool {
		return r.ScopeEntityID == scopeEntityID
	})
}

// Remove elimina la entrada; ErrNotFound si no existe.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	recs, err := c.load(ctx)
	if err != nil {
		return err
	}
	out := recs[:0]
	found := false
	for _, r := range recs {
		if r.ID == id {
			found = true
			continue
		}
		out = append(out, r)
	}
	if !found {
		return fmt.Errorf("%w: respaldo %s", domain.ErrNotFound, id)
	}
	return c.save(ctx, out)
}

// PurgeOlderThan elimina todas las entradas anteriores al corte.
func (c *Catalog) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	recs, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	out := recs[:0]
	for _, r := range recs {
		if r.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, r)
	}
	purged := len(recs) - len(out)
	if purged == 0 {
		return 0, nil
	}
	if err := c.save(ctx, out); err != nil {
		return 0, err
	}
	return purged, nil
}

func (c *Catalog) filter(ctx context.Context, keep func(record) bool) ([]*entity.Backup, error) {
	c.mu.Lock()
	recs, err := c.load(ctx)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	list := make([]*entity.Backup, 0, len(recs))
	for _, r := range recs {
		if keep(r) {
			list = append(list, r.toEntity())
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// load lee el archivo completo; inexistente equivale a catálogo vacío.
func (c *Catalog) load(ctx context.Context) ([]record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: leer catálogo: %v", domain.ErrBackupIO, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: catálogo ilegible: %v", domain.ErrBackupIO, err)
	}
	return recs, nil
}

func (c *Catalog) save(ctx context.Context, recs []record) error {
	if recs == nil {
		recs = []record{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: serializar catálogo: %v", domain.ErrBackupIO, err)
	}
	if err := storage.WriteFileAtomic(ctx, c.path, data, 0o600); err != nil {
		return fmt.Errorf("%w: guardar catálogo: %w", domain.ErrBackupIO, err)
	}
	return nil
}

func toRecord(b *entity.Backup) record {
	return record{
		ID:              b.ID,
		Type:            string(b.Type),
		ScopeEntityID:   b.ScopeEntityID,
		ScopeEntityName: b.ScopeEntityName,
		Filename:        b.Filename,
		SizeBytes:       b.SizeBytes,
		CreatedAt:       b.CreatedAt,
		Description:     b.Description,
	}
}

func (r record) toEntity() *entity.Backup {
	return &entity.Backup{
		ID:              r.ID,
		Type:            entity.BackupType(r.Type),
		ScopeEntityID:   r.ScopeEntityID,
		ScopeEntityName: r.ScopeEntityName,
		Filename:        r.Filename,
		SizeBytes:       r.SizeBytes,
		CreatedAt:       r.CreatedAt,
		Description:     r.Description,
	}
}
