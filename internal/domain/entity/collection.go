package entity

import (
	"fmt"
	"sort"
)

// TenantColumn columna que acota cada colección a su tenant.
const TenantColumn = "tenant_id"

// Phase agrupa colecciones que se borran e insertan juntas.
// Las cuentas solo referencian al tenant (que nunca se borra), así que van al final.
type Phase int

const (
	PhaseBusiness Phase = iota
	PhaseAccounts
)

// Collection descriptor declarativo de una colección respaldable.
// De esta tabla salen el orden de captura, de borrado y de inserción.
type Collection struct {
	Name         string
	Phase        Phase
	Rank         int  // dentro de la fase: menor rango = padre
	TenantOnly   bool // solo en alcance tenant
	Columns      []string
	ForeignKeys  map[string]string // columna -> colección referenciada
	ParentColumn string            // autorreferencia (árbol dentro de la colección)
}

// SnapshotCollections en orden de inserción (padres primero).
var SnapshotCollections = []Collection{
	{
		Name: "product_categories", Phase: PhaseBusiness, Rank: 0, TenantOnly: true,
		Columns:      []string{"id", "tenant_id", "parent_id", "name", "description", "is_active", "created_at", "updated_at"},
		ForeignKeys:  map[string]string{"parent_id": "product_categories"},
		ParentColumn: "parent_id",
	},
	{
		Name: "customers", Phase: PhaseBusiness, Rank: 0,
		Columns: []string{"id", "tenant_id", "name", "email", "phone", "address", "tax_number", "company", "balance", "created_at", "updated_at"},
	},
	{
		Name: "suppliers", Phase: PhaseBusiness, Rank: 0,
		Columns: []string{"id", "tenant_id", "name", "email", "phone", "address", "tax_number", "contact_person", "created_at", "updated_at"},
	},
	{
		Name: "products", Phase: PhaseBusiness, Rank: 1,
		Columns: []string{"id", "tenant_id", "category_id", "name", "sku", "description", "price", "cost", "stock",
			"min_stock", "unit", "tax_rate", "is_active", "created_at", "updated_at"},
		ForeignKeys: map[string]string{"category_id": "product_categories"},
	},
	{
		Name: "invoices", Phase: PhaseBusiness, Rank: 2,
		Columns: []string{"id", "tenant_id", "customer_id", "invoice_number", "issue_date", "due_date", "subtotal",
			"tax_amount", "discount_amount", "total", "status", "notes", "created_at", "updated_at"},
		ForeignKeys: map[string]string{"customer_id": "customers"},
	},
	{
		Name: "expenses", Phase: PhaseBusiness, Rank: 2,
		Columns: []string{"id", "tenant_id", "supplier_id", "expense_number", "description", "expense_date", "amount",
			"category", "status", "notes", "created_at", "updated_at"},
		ForeignKeys: map[string]string{"supplier_id": "suppliers"},
	},
	{
		Name: "users", Phase: PhaseAccounts, Rank: 0, TenantOnly: true,
		Columns: []string{"id", "tenant_id", "email", "password_hash", "first_name", "last_name", "role", "is_active",
			"email_verified", "email_verification_token", "password_reset_token", "password_reset_expires_at",
			"two_factor_enabled", "two_factor_secret", "two_factor_backup_codes", "token_version", "last_login_at",
			"created_at", "updated_at"},
	},
}

// UserProfileColumns campos no secretos del usuario (alcance user).
var UserProfileColumns = []string{
	"id", "tenant_id", "email", "first_name", "last_name", "role", "is_active", "email_verified",
	"last_login_at", "created_at", "updated_at",
}

// TenantColumns campos descriptivos y de negocio del tenant (alcance tenant).
var TenantColumns = []string{
	"id", "name", "slug", "company_name", "tax_number", "email", "phone", "address", "subscription_plan", "status",
	"max_users", "subscription_expires_at", "stripe_customer_id", "stripe_subscription_id", "settings",
	"created_at", "updated_at",
}

// CollectionByName busca el descriptor por nombre.
func CollectionByName(name string) (Collection, bool) {
	for _, c := range SnapshotCollections {
		if c.Name == name {
			return c, true
		}
	}
	return Collection{}, false
}

// AppliesTo informa si la colección se respalda en el alcance dado.
func (c Collection) AppliesTo(t BackupType) bool {
	switch t {
	case BackupTypeTenant:
		return true
	case BackupTypeUser:
		return !c.TenantOnly
	}
	return false
}

// InsertOrder colecciones del alcance, padres primero.
func InsertOrder(t BackupType) []Collection {
	var out []Collection
	for _, c := range SnapshotCollections {
		if c.AppliesTo(t) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Phase != out[j].Phase {
			return out[i].Phase < out[j].Phase
		}
		return out[i].Rank < out[j].Rank
	})
	return out
}

// DeleteOrder colecciones del alcance, hijos primero dentro de cada fase.
func DeleteOrder(t BackupType) []Collection {
	ins := InsertOrder(t)
	out := make([]Collection, 0, len(ins))
	for start := 0; start < len(ins); {
		end := start
		for end < len(ins) && ins[end].Phase == ins[start].Phase {
			end++
		}
		for i := end - 1; i >= start; i-- {
			out = append(out, ins[i])
		}
		start = end
	}
	return out
}

// HasColumn informa si la columna está en la lista blanca.
func (c Collection) HasColumn(col string) bool {
	for _, name := range c.Columns {
		if name == col {
			return true
		}
	}
	return false
}

// CheckRow valida una fila contra la lista blanca y exige id.
func (c Collection) CheckRow(row Row) error {
	for col := range row {
		if !c.HasColumn(col) {
			return fmt.Errorf("%s: columna desconocida %q", c.Name, col)
		}
	}
	if row.String("id") == "" {
		return fmt.Errorf("%s: fila sin id", c.Name)
	}
	return nil
}

// SortRows ordena las filas para que un padre (ParentColumn) preceda a sus hijos.
// Sin ParentColumn devuelve las filas tal cual.
func (c Collection) SortRows(rows []Row) []Row {
	if c.ParentColumn == "" || len(rows) < 2 {
		return rows
	}
	byID := make(map[string]Row, len(rows))
	for _, r := range rows {
		byID[r.String("id")] = r
	}
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(rows))
	out := make([]Row, 0, len(rows))
	var visit func(r Row)
	visit = func(r Row) {
		id := r.String("id")
		if state[id] != 0 {
			return
		}
		state[id] = visiting
		if parent, ok := byID[r.String(c.ParentColumn)]; ok {
			visit(parent)
		}
		state[id] = done
		out = append(out, r)
	}
	for _, r := range rows {
		visit(r)
	}
	return out
}
