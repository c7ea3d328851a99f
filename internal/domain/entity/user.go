package entity

import "strings"

// RoleAdmin rol del operador de plataforma, el único con acceso a los respaldos.
const RoleAdmin = "admin"

// User perfil no secreto de un usuario (pertenece a un Tenant).
// Las credenciales solo viajan en los respaldos de alcance tenant, como filas crudas.
type User struct {
	ID        string
	TenantID  string
	Email     string
	FirstName string
	LastName  string
}

// UserFromRow construye el perfil desde una fila de users.
func UserFromRow(row Row) *User {
	return &User{
		ID:        row.String("id"),
		TenantID:  row.String(TenantColumn),
		Email:     row.String("email"),
		FirstName: row.String("first_name"),
		LastName:  row.String("last_name"),
	}
}

// DisplayName "Nombre Apellido"; el email si ambos están vacíos.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
