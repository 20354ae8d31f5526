package models

import (
	"time"

	"github.com/google/uuid"
)

type ServiceCategory struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type ServiceProvider struct {
	ID              uuid.UUID `json:"id" db:"id"`
	CategoryID      uuid.UUID `json:"category_id" db:"category_id"`
	CategoryName    string    `json:"category_name,omitempty" db:"-"`
	FullName        string    `json:"full_name" db:"full_name"`
	Phone           string    `json:"phone" db:"phone"`
	Email           string    `json:"email" db:"email"`
	Address         string    `json:"address" db:"address"`
	NIDNumber       string    `json:"nid_number" db:"nid_number"`
	ExperienceYears *int      `json:"experience_years" db:"experience_years"`
	Notes           string    `json:"notes" db:"notes"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// ProviderFilter narrows the provider list. Active is nil for any.
type ProviderFilter struct {
	Query      string
	CategoryID *uuid.UUID
	Active     *bool
	Limit      int
	Offset     int
}
