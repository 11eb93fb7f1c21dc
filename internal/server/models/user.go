package models

import "time"

// User is an account row. ID is a UUID string and doubles as the tenancy
// key carried through every store call.
type User struct {
	ID           string
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}
