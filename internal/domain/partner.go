package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Partner represents an insurance carrier the brokerage works with,
// displayed on the public site. Rows are maintained by the seed script.
type Partner struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Name         string     `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Category     string     `gorm:"size:50" json:"category"`
	Website      string     `gorm:"size:255" json:"website"`
	LogoURL      string     `gorm:"size:255" json:"logo_url"`
	DisplayOrder int        `gorm:"default:0" json:"display_order"`
	Active       bool       `gorm:"default:true" json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// TableName specifies the table name for Partner
func (Partner) TableName() string {
	return "partners"
}

// BeforeCreate hook
func (p *Partner) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate hook
func (p *Partner) BeforeUpdate(tx *gorm.DB) error {
	now := time.Now().UTC()
	p.UpdatedAt = &now
	return nil
}
