package types

import "time"

const (
	RoleClient         = "client"
	RoleAdmin          = "admin"
	RoleProjectManager = "project_manager"
	RoleDesigner       = "designer"
	RoleDeveloper      = "developer"
	RoleEditor         = "editor"
	RoleBilling        = "billing"
)

// User is a portal member. The role decides the visibility scope: clients
// only see their own projects, every other role is staff.
type User struct {
	Id           string    `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsStaff() bool {
	return IsStaffRole(u.Role)
}

func IsStaffRole(role string) bool {
	switch role {
	case RoleAdmin, RoleProjectManager, RoleDesigner, RoleDeveloper, RoleEditor, RoleBilling:
		return true
	}
	return false
}

// ValidRole reports whether role is one of the enumerated member roles.
func ValidRole(role string) bool {
	return role == RoleClient || IsStaffRole(role)
}
