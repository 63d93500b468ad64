// Package domain contains the patient and affiliate accounts checkout attaches to orders.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a patient or affiliate account scoped to one tenant.
type User struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_users_tenant_email,priority:1"`
	Email               string    `gorm:"type:text;not null;uniqueIndex:ux_users_tenant_email,priority:2"`
	FirstName           string    `gorm:"type:text"`
	LastName            string    `gorm:"type:text"`
	Phone               string    `gorm:"type:text"`
	State               string    `gorm:"type:varchar(2)"`
	PasswordHash        *string   `gorm:"type:text"`
	Placeholder         bool      `gorm:"not null;default:false"`
	IsAffiliate         bool      `gorm:"not null;default:false"`
	AffiliateSlug       *string   `gorm:"type:text;uniqueIndex"`
	ProcessorCustomerID *string   `gorm:"type:text"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (User) TableName() string { return "users" }

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Details identifies a payer who has no session yet.
type Details struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	State     string
}
