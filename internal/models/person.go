package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type PersonKind string

const (
	PersonOwner  PersonKind = "owner"
	PersonLessee PersonKind = "lessee"
)

// Person is an owner or a lessee; both share the same shape and live in
// separate tables.
type Person struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Kind      PersonKind `json:"kind" db:"-"`
	Name      string     `json:"name" db:"name"`
	Phone     string     `json:"phone" db:"phone"`
	Email     string     `json:"email" db:"email"`
	Address   string     `json:"address" db:"address"`
	NIDNumber string     `json:"nid_number" db:"nid_number"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
