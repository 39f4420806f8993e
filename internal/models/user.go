package models

import "time"

// User is the account a location stream belongs to.
// Registration and login live outside this service; only existence is checked here.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Disabled  bool      `json:"disabled" db:"disabled"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
