package models

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID          uuid.UUID  `db:"id" json:"id" gorm:"type:uuid;primaryKey"`
	Title       string     `db:"title" json:"title" gorm:"not null"`
	Description string     `db:"description" json:"description"`
	Completed   bool       `db:"completed" json:"completed" gorm:"not null;default:false"`
	DueDate     *time.Time `db:"due_date" json:"dueDate,omitempty"`
	UserID      uuid.UUID  `db:"user_id" json:"userId" gorm:"type:uuid;index;not null"`
	User        *User      `db:"-" json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt" gorm:"index"`
}

// TaskUpdate is a partial update. Nil fields are left untouched.
// DueDate uses a double pointer so a caller can clear the date: a non-nil
// DueDate pointing at nil sets the column to NULL.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
	DueDate     **time.Time
}

func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Completed == nil && u.DueDate == nil
}
