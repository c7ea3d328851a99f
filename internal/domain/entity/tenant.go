package entity

import "fmt"

// Planes de suscripción válidos.
const (
	PlanFree         = "free"
	PlanBasic        = "basic"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// Estados de tenant.
const (
	TenantActive    = "active"
	TenantSuspended = "suspended"
	TenantTrial     = "trial"
	TenantExpired   = "expired"
)

// TenantState campos mutables del tenant que una restauración reescribe en sitio.
// El resto de la fila (id, slug, fechas) no se toca: el tenant es la llave estable del alcance.
type TenantState struct {
	ID                   string
	Name                 string
	SubscriptionPlan     string
	Status               string
	MaxUsers             int64
	StripeCustomerID     *string
	StripeSubscriptionID *string
}

// TenantStateFromRow extrae el estado restaurable del registro tenant de un snapshot.
func TenantStateFromRow(row Row) (*TenantState, error) {
	if row == nil {
		return nil, fmt.Errorf("snapshot sin registro tenant")
	}
	maxUsers, err := row.Int("max_users")
	if err != nil {
		return nil, err
	}
	st := &TenantState{
		ID:                   row.String("id"),
		Name:                 row.String("name"),
		SubscriptionPlan:     row.String("subscription_plan"),
		Status:               row.String("status"),
		MaxUsers:             maxUsers,
		StripeCustomerID:     row.NullableString("stripe_customer_id"),
		StripeSubscriptionID: row.NullableString("stripe_subscription_id"),
	}
	switch st.SubscriptionPlan {
	case PlanFree, PlanBasic, PlanProfessional, PlanEnterprise:
	default:
		return nil, fmt.Errorf("plan desconocido %q", st.SubscriptionPlan)
	}
	switch st.Status {
	case TenantActive, TenantSuspended, TenantTrial, TenantExpired:
	default:
		return nil, fmt.Errorf("estado de tenant desconocido %q", st.Status)
	}
	return st, nil
}
