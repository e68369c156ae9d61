package domain

import "time"

// User maps a unique handle to a hashed credential. Records are created
// on signup and never mutated afterwards.
type User struct {
	Handle     string
	SecretHash string
	CreatedAt  time.Time
}
