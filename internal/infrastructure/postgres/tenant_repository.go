package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
)

// TenantRepo lectura del registro tenant y su actualización en sitio durante una restauración.
type TenantRepo struct {
	q Querier
}

// NewTenantRepository construye el adaptador de persistencia para tenants.
func NewTenantRepository(q Querier) *TenantRepo {
	return &TenantRepo{q: q}
}

// Tenant fila completa del tenant; nil si no existe.
func (r *TenantRepo) Tenant(ctx context.Context, id string) (entity.Row, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE id = $1`, columnList(entity.TenantColumns))
	rows, err := r.q.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, rowToEntity)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return row, nil
}

// UpdateTenant reescribe nombre, plan, estado, cupo de usuarios e identificadores de facturación.
func (r *TenantRepo) UpdateTenant(ctx context.Context, st *entity.TenantState) error {
	query := `
		UPDATE tenants
		   SET name = $2, subscription_plan = $3, status = $4, max_users = $5,
		       stripe_customer_id = $6, stripe_subscription_id = $7, updated_at = now()
		 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		st.ID, st.Name, st.SubscriptionPlan, st.Status, st.MaxUsers,
		st.StripeCustomerID, st.StripeSubscriptionID,
	)
	if err != nil {
		return fmt.Errorf("update tenant: %w", withConstraint(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: tenant %s", domain.ErrNotFound, st.ID)
	}
	return nil
}
