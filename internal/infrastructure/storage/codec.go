package storage

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
)

// Claves de los registros singulares del documento.
const (
	keyTenant = "tenant"
	keyUser   = "user"
)

// EncodeSnapshot serializa el snapshot como un único objeto JSON:
// "tenant" / "user" y una clave por colección.
func EncodeSnapshot(s *entity.Snapshot) ([]byte, error) {
	doc := make(map[string]any, len(s.Collections)+2)
	if s.Tenant != nil {
		doc[keyTenant] = s.Tenant
	}
	if s.User != nil {
		doc[keyUser] = s.User
	}
	for name, rows := range s.Collections {
		doc[name] = rows
	}
	return json.MarshalIndent(doc, "", "  ")
}

// DecodeSnapshot lee un documento. Los números quedan como json.Number para no perder
// precisión en enteros grandes ni en decimales.
// Se decodifica con encoding/json: go-json (issue #340) falla con arreglos de cientos de objetos.
func DecodeSnapshot(data []byte) (*entity.Snapshot, error) {
	var raw map[string]stdjson.RawMessage
	if err := stdjson.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	snap := entity.NewSnapshot()
	for key, msg := range raw {
		switch key {
		case keyTenant, keyUser:
			var row entity.Row
			if err := decodeNumbers(msg, &row); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			if key == keyTenant {
				snap.Tenant = row
			} else {
				snap.User = row
			}
		default:
			if _, ok := entity.CollectionByName(key); !ok {
				return nil, fmt.Errorf("colección desconocida %q", key)
			}
			var rows []entity.Row
			if err := decodeNumbers(msg, &rows); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			if rows == nil {
				rows = []entity.Row{}
			}
			snap.Collections[key] = rows
		}
	}
	return snap, nil
}

func decodeNumbers(msg []byte, v any) error {
	dec := stdjson.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	return dec.Decode(v)
}
