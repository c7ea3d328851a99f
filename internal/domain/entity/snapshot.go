package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Row fila plana de una colección: columna -> escalar (string, número, bool o nil).
type Row map[string]any

// String devuelve el valor de la columna como texto ("" si es nil o no existe).
func (r Row) String(col string) string {
	v, ok := r[col]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Int devuelve el valor entero de la columna. Acepta los tipos que producen
// el driver (int32/int64) y el decodificador de snapshots (json.Number).
func (r Row) Int(col string) (int64, error) {
	switch t := r[col].(type) {
	case nil:
		return 0, nil
	case int:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	case json.Number:
		return t.Int64()
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("columna %s: tipo %T no es entero", col, t)
	}
}

// NullableString nil si la columna es nula o no existe.
func (r Row) NullableString(col string) *string {
	if r[col] == nil {
		return nil
	}
	s := r.String(col)
	return &s
}

// Snapshot documento serializado de un alcance tenant o user.
// Tenant solo existe en alcance tenant; User solo en alcance user.
type Snapshot struct {
	Tenant      Row
	User        Row
	Collections map[string][]Row
}

// NewSnapshot crea un documento vacío.
func NewSnapshot() *Snapshot {
	return &Snapshot{Collections: make(map[string][]Row)}
}

// Rows filas capturadas para la colección (nil si no fue capturada).
func (s *Snapshot) Rows(name string) []Row {
	return s.Collections[name]
}

// Count total de filas por colección.
func (s *Snapshot) Count() map[string]int {
	out := make(map[string]int, len(s.Collections))
	for name, rows := range s.Collections {
		out[name] = len(rows)
	}
	return out
}
