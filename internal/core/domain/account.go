package domain

import "time"

type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleCounselor  Role = "Counselor"
	RoleGuardian   Role = "Guardian"
	RoleAdolescent Role = "Adolescent"
)

// Roles lists every role the console manages, in the order the admin UI
// presents them.
var Roles = []Role{RoleAdmin, RoleCounselor, RoleGuardian, RoleAdolescent}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
