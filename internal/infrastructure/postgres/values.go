package postgres

import (
	"encoding/hex"
	stdjson "encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// rowToEntity convierte la fila actual en entity.Row con valores escalares serializables.
func rowToEntity(row pgx.CollectableRow) (entity.Row, error) {
	values, err := row.Values()
	if err != nil {
		return nil, err
	}
	fds := row.FieldDescriptions()
	out := make(entity.Row, len(values))
	for i, fd := range fds {
		v, err := normalizeValue(fd.DataTypeOID, values[i])
		if err != nil {
			return nil, fmt.Errorf("columna %s: %w", fd.Name, err)
		}
		out[fd.Name] = v
	}
	return out, nil
}

// arrays codifica arreglos en su literal de texto de Postgres. pgtype.Map no es seguro
// para uso concurrente.
var arrays = struct {
	sync.Mutex
	m *pgtype.Map
}{m: pgtype.NewMap()}

func isArrayOID(oid uint32) bool {
	arrays.Lock()
	defer arrays.Unlock()
	t, ok := arrays.m.TypeForOID(oid)
	if !ok {
		return false
	}
	_, ok = t.Codec.(*pgtype.ArrayCodec)
	return ok
}

func arrayLiteral(oid uint32, v any) (string, error) {
	arrays.Lock()
	defer arrays.Unlock()
	b, err := arrays.m.Encode(oid, pgtype.TextFormatCode, v, nil)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// normalizeValue lleva el valor decodificado por pgx a su forma en el snapshot:
// uuid como texto canónico, fechas RFC3339Nano en UTC, NUMERIC exacto como texto,
// JSON como texto JSON. Arreglos y bytea quedan en la forma de texto que Postgres
// acepta de vuelta al insertar ({a,b} y \x…).
func normalizeValue(oid uint32, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if isArrayOID(oid) {
		return arrayLiteral(oid, v)
	}
	if oid == pgtype.JSONOID || oid == pgtype.JSONBOID {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	switch t := v.(type) {
	case string, bool, int16, int32, int64, float64:
		return t, nil
	case float32:
		return float64(t), nil
	case [16]byte:
		return uuid.UUID(t).String(), nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case decimal.Decimal:
		return t.String(), nil
	case []byte:
		return `\x` + hex.EncodeToString(t), nil
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return nil, fmt.Errorf("tipo %T no soportado en respaldos", v)
	}
}

// toParam prepara un valor del snapshot como argumento de INSERT.
// Los textos viajan en formato texto y Postgres los convierte al tipo de la columna.
// Los números llegan como encoding/json.Number desde el decodificador de snapshots.
func toParam(v any) any {
	switch t := v.(type) {
	case stdjson.Number:
		return t.String()
	default:
		return t
	}
}
