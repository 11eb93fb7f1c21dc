package models

import "time"

// RefreshToken is an opaque long-lived token row used to mint new access
// tokens.
type RefreshToken struct {
	UserID  string
	Expires time.Time
}
