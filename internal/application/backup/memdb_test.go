package backup_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/Respaldo-api/internal/domain"
	"github.com/jhoicas/Respaldo-api/internal/domain/entity"
	"github.com/jhoicas/Respaldo-api/internal/domain/repository"
)

// memDB base relacional en memoria con transacciones de restauración todo-o-nada:
// cada RunRestore trabaja sobre una copia y solo la publica si fn no falla.
// Aplica unicidad de PK, claves foráneas (incluida tenant_id -> tenants) y
// borrado restringido mientras existan referencias.
type memDB struct {
	mu         sync.Mutex
	state      *memState
	failInsert map[string]error
	commits    int
}

type memState struct {
	tenants map[string]entity.Row
	tables  map[string]map[string]entity.Row // colección -> id -> fila
}

func newMemDB() *memDB {
	st := &memState{
		tenants: make(map[string]entity.Row),
		tables:  make(map[string]map[string]entity.Row),
	}
	for _, c := range entity.SnapshotCollections {
		st.tables[c.Name] = make(map[string]entity.Row)
	}
	return &memDB{state: st, failInsert: make(map[string]error)}
}

func copyRow(r entity.Row) entity.Row {
	if r == nil {
		return nil
	}
	out := make(entity.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (s *memState) clone() *memState {
	out := &memState{
		tenants: make(map[string]entity.Row, len(s.tenants)),
		tables:  make(map[string]map[string]entity.Row, len(s.tables)),
	}
	for id, r := range s.tenants {
		out.tenants[id] = copyRow(r)
	}
	for name, rows := range s.tables {
		m := make(map[string]entity.Row, len(rows))
		for id, r := range rows {
			m[id] = copyRow(r)
		}
		out.tables[name] = m
	}
	return out
}

func (db *memDB) RunSnapshot(_ context.Context, fn func(r repository.SnapshotReader) error) error {
	db.mu.Lock()
	view := db.state.clone()
	db.mu.Unlock()
	return fn(&memTx{st: view})
}

func (db *memDB) RunRestore(_ context.Context, fn func(w repository.SnapshotWriter) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	work := db.state.clone()
	if err := fn(&memTx{st: work, failInsert: db.failInsert}); err != nil {
		return err
	}
	db.state = work
	db.commits++
	return nil
}

// ── acceso directo para preparar y verificar escenarios ──────────────────────

func (db *memDB) putTenant(r entity.Row) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.tenants[r.String("id")] = r
}

func (db *memDB) put(collection string, r entity.Row) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.state.tables[collection][r.String("id")] = r
}

func (db *memDB) set(collection, id, col string, v any) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if collection == "tenants" {
		db.state.tenants[id][col] = v
		return
	}
	db.state.tables[collection][id][col] = v
}

func (db *memDB) remove(collection, id string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.state.tables[collection], id)
}

// wipe borra directamente las filas del tenant en las colecciones dadas (sin verificar FK).
func (db *memDB) wipe(tenantID string, collections ...string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, name := range collections {
		for id, r := range db.state.tables[name] {
			if r.String(entity.TenantColumn) == tenantID {
				delete(db.state.tables[name], id)
			}
		}
	}
}

func (db *memDB) count(collection, tenantID string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, r := range db.state.tables[collection] {
		if r.String(entity.TenantColumn) == tenantID {
			n++
		}
	}
	return n
}

func (db *memDB) ids(collection, tenantID string) []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []string
	for id, r := range db.state.tables[collection] {
		if r.String(entity.TenantColumn) == tenantID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// digest vista textual de todo lo que pertenece al tenant: colección -> id -> columna -> valor.
func (db *memDB) digest(tenantID string) map[string]map[string]map[string]string {
	db.mu.Lock()
	defer db.mu.Unlock()
	flat := func(r entity.Row) map[string]string {
		m := make(map[string]string, len(r))
		for k := range r {
			m[k] = r.String(k)
		}
		return m
	}
	out := map[string]map[string]map[string]string{
		"tenants": {tenantID: flat(db.state.tenants[tenantID])},
	}
	for name, rows := range db.state.tables {
		m := make(map[string]map[string]string)
		for id, r := range rows {
			if r.String(entity.TenantColumn) == tenantID {
				m[id] = flat(r)
			}
		}
		out[name] = m
	}
	return out
}

// ── transacción ──────────────────────────────────────────────────────────────

type memTx struct {
	st         *memState
	failInsert map[string]error
}

func project(r entity.Row, cols []string) entity.Row {
	out := make(entity.Row, len(cols))
	for _, c := range cols {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

func (tx *memTx) Tenant(_ context.Context, tenantID string) (entity.Row, error) {
	r, ok := tx.st.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	return project(r, entity.TenantColumns), nil
}

func (tx *memTx) UserProfile(_ context.Context, userID string) (entity.Row, error) {
	r, ok := tx.st.tables["users"][userID]
	if !ok {
		return nil, nil
	}
	return project(r, entity.UserProfileColumns), nil
}

func (tx *memTx) Rows(_ context.Context, c entity.Collection, tenantID string) ([]entity.Row, error) {
	var out []entity.Row
	for _, r := range tx.st.tables[c.Name] {
		if r.String(entity.TenantColumn) == tenantID {
			out = append(out, project(r, c.Columns))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String("id") < out[j].String("id") })
	return out, nil
}

func (tx *memTx) DeleteByTenant(_ context.Context, c entity.Collection, tenantID string) (int64, error) {
	doomed := make(map[string]bool)
	for id, r := range tx.st.tables[c.Name] {
		if r.String(entity.TenantColumn) == tenantID {
			doomed[id] = true
		}
	}
	// ON DELETE RESTRICT
	for _, other := range entity.SnapshotCollections {
		for col, target := range other.ForeignKeys {
			if target != c.Name {
				continue
			}
			for id, r := range tx.st.tables[other.Name] {
				if other.Name == c.Name && doomed[id] {
					continue
				}
				if ref := r.String(col); doomed[ref] {
					return 0, fmt.Errorf("update or delete on table %q violates foreign key constraint %q on table %q",
						c.Name, "fk_"+other.Name+"_"+col, other.Name)
				}
			}
		}
	}
	for id := range doomed {
		delete(tx.st.tables[c.Name], id)
	}
	return int64(len(doomed)), nil
}

func (tx *memTx) Insert(_ context.Context, c entity.Collection, rows []entity.Row) error {
	if err := tx.failInsert[c.Name]; err != nil {
		return err
	}
	table := tx.st.tables[c.Name]
	for _, r := range rows {
		id := r.String("id")
		if _, dup := table[id]; dup {
			return fmt.Errorf("duplicate key value violates unique constraint %q", c.Name+"_pkey")
		}
		if _, ok := tx.st.tenants[r.String(entity.TenantColumn)]; !ok {
			return fmt.Errorf("insert on table %q violates foreign key constraint %q", c.Name, "fk_"+c.Name+"_tenant")
		}
		for col, target := range c.ForeignKeys {
			ref := r.String(col)
			if ref == "" {
				continue
			}
			if _, ok := tx.st.tables[target][ref]; !ok {
				return fmt.Errorf("insert on table %q violates foreign key constraint %q", c.Name, "fk_"+c.Name+"_"+col)
			}
		}
		table[id] = copyRow(r)
	}
	return nil
}

func (tx *memTx) UpdateTenant(_ context.Context, st *entity.TenantState) error {
	r, ok := tx.st.tenants[st.ID]
	if !ok {
		return fmt.Errorf("%w: tenant %s", domain.ErrNotFound, st.ID)
	}
	r["name"] = st.Name
	r["subscription_plan"] = st.SubscriptionPlan
	r["status"] = st.Status
	r["max_users"] = st.MaxUsers
	r["stripe_customer_id"] = nullable(st.StripeCustomerID)
	r["stripe_subscription_id"] = nullable(st.StripeSubscriptionID)
	return nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// ── datos de prueba ──────────────────────────────────────────────────────────

// seedTenant crea un tenant completo. Los ids llevan el id del tenant como prefijo.
// La categoría hija tiene un id menor que su padre para que la lectura ordenada por id
// devuelva la hija primero.
func seedTenant(db *memDB, t string) {
	db.putTenant(entity.Row{
		"id": t, "name": "Empresa " + t, "slug": t, "email": t + "@example.com",
		"subscription_plan": entity.PlanProfessional, "status": entity.TenantActive,
		"max_users": int64(10), "stripe_customer_id": nil, "stripe_subscription_id": "sub_" + t,
		"created_at": "2026-01-01T00:00:00Z",
	})
	db.put("product_categories", entity.Row{"id": t + "-cat-1", "tenant_id": t, "parent_id": t + "-cat-2", "name": "Bebidas frías", "is_active": true})
	db.put("product_categories", entity.Row{"id": t + "-cat-2", "tenant_id": t, "parent_id": nil, "name": "Bebidas", "is_active": true})
	for i := 1; i <= 3; i++ {
		db.put("customers", entity.Row{
			"id": fmt.Sprintf("%s-cus-%d", t, i), "tenant_id": t,
			"name": fmt.Sprintf("Cliente %d", i), "email": fmt.Sprintf("c%d@%s.com", i, t), "balance": "0.00",
		})
	}
	db.put("suppliers", entity.Row{"id": t + "-sup-1", "tenant_id": t, "name": "Proveedor", "contact_person": "Ana"})
	db.put("products", entity.Row{"id": t + "-pro-1", "tenant_id": t, "category_id": t + "-cat-1", "name": "Agua", "sku": "AG-1", "price": "1.50", "stock": int64(40), "is_active": true})
	db.put("products", entity.Row{"id": t + "-pro-2", "tenant_id": t, "category_id": t + "-cat-2", "name": "Jugo", "sku": "JU-1", "price": "3.25", "stock": int64(12), "is_active": true})
	db.put("invoices", entity.Row{"id": t + "-inv-1", "tenant_id": t, "customer_id": t + "-cus-1", "invoice_number": "F-001", "total": "150.00", "status": "paid", "notes": nil})
	db.put("invoices", entity.Row{"id": t + "-inv-2", "tenant_id": t, "customer_id": t + "-cus-2", "invoice_number": "F-002", "total": "80.50", "status": "pending", "notes": "enviar por correo"})
	db.put("expenses", entity.Row{"id": t + "-exp-1", "tenant_id": t, "supplier_id": t + "-sup-1", "expense_number": "G-001", "amount": "45.00", "status": "paid"})
	db.put("users", entity.Row{
		"id": t + "-usr-1", "tenant_id": t, "email": "owner@" + t + ".com", "password_hash": "$2a$10$hash",
		"first_name": "Olga", "last_name": "Dueña", "role": "owner", "is_active": true, "token_version": int64(1),
		"two_factor_enabled": true, "two_factor_backup_codes": "{c0d3-1,c0d3-2}",
	})
	db.put("users", entity.Row{
		"id": t + "-usr-2", "tenant_id": t, "email": "vendedor@" + t + ".com", "password_hash": "$2a$10$otro",
		"first_name": "", "last_name": "", "role": "user", "is_active": true, "token_version": int64(3),
	})
}
