package domain

import "time"

type Account struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`

	// Operators carry a company assignment, guards a zone assignment.
	CompanyID *int64 `json:"company_id,omitempty"`
	ZoneID    *int64 `json:"zone_id,omitempty"`

	FailedLoginCount int        `json:"-"`
	LockoutUntil     *time.Time `json:"-"`

	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Actor is the authorization view of an account.
func (a *Account) Actor() Actor {
	return Actor{ID: a.ID, Role: a.Role, CompanyID: a.CompanyID, ZoneID: a.ZoneID}
}

type RegisterReq struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	CompanyID *int64 `json:"company_id,omitempty"`
	ZoneID    *int64 `json:"zone_id,omitempty"`
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRes struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Role        string `json:"role"`
}
