package domain

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperador Role = "operador"
	RoleGuardia  Role = "guardia"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleOperador, RoleGuardia:
		return Role(s), true
	default:
		return "", false
	}
}

// Actor is who is asking: role plus the assignment that scopes them.
type Actor struct {
	ID        int64  `json:"id"`
	Role      Role   `json:"role"`
	CompanyID *int64 `json:"company_id,omitempty"`
	ZoneID    *int64 `json:"zone_id,omitempty"`
}

type Company struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type Zone struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Gate is a physical entry point; it belongs to exactly one zone.
type Gate struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
	ZoneID int64  `json:"zone_id"`
	Active bool   `json:"active"`
}

type Visitor struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// ZoneGrant is a read-only assignment row consumed by the access resolver.
type ZoneGrant struct {
	ActorID   int64     `json:"actor_id"`
	ZoneID    int64     `json:"zone_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
