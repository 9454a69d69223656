package models

import (
	"time"
)

// IssuedToken is a signed API token for a client application
type IssuedToken struct {
	Client    string
	Value     string
	ExpiresAt time.Time
}
