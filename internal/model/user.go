package model

import "time"

// User roles and statuses.  Only ACTIVE users may authenticate.
const (
	RolePassenger = "PASSENGER"
	RoleAdmin     = "ADMIN"

	UserActive    = "ACTIVE"
	UserInactive  = "INACTIVE"
	UserSuspended = "SUSPENDED"
)

// User represents an application account as stored in the `users` table.
// JSON tags are omitted because these structs are used internally by the
// repository layer; handlers define separate response types.
//
// Fields:
//
//	ID           - primary key identifier.
//	Username     - unique login name.
//	Email        - unique email address.
//	PasswordHash - bcrypt hashed password.
//	Role         - PASSENGER or ADMIN.
//	Status       - ACTIVE, INACTIVE or SUSPENDED.
//	CreatedAt    - creation timestamp.
//	UpdatedAt    - last update timestamp.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	Status       string    // users.status
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token value is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
