package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id" gorm:"type:uuid;primaryKey"`
	FirstName    string    `db:"first_name" gorm:"not null"`
	LastName     string    `db:"last_name" gorm:"not null"`
	Email        string    `db:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `db:"password_hash" gorm:"not null"`
	CreatedAt    time.Time `db:"created_at"`
}

// Identity is what the session layer knows about the caller.
// A nil *Identity or an empty Email means the request is unauthenticated.
type Identity struct {
	Email string
}
