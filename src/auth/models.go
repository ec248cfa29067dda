package auth

import (
	"time"
)

// APIKey is the stored record behind a gateway key. The key itself is
// never persisted, only its SHA-256.
type APIKey struct {
	Tenant    string    `json:"tenant"`
	Name      string    `json:"name"`
	Prefix    string    `json:"prefix"`
	CreatedAt time.Time `json:"created_at"`
}
