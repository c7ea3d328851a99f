package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
)

// UserRepo lectura del perfil no secreto de un usuario.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// UserProfile perfil sin credenciales ni tokens; nil si no existe.
func (r *UserRepo) UserProfile(ctx context.Context, id string) (entity.Row, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, columnList(entity.UserProfileColumns))
	rows, err := r.q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, rowToEntity)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return row, nil
}
