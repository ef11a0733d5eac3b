package models

import (
	"time"
)

// AccessPreset is a named, reusable access-control configuration that can be
// applied to a new short URL. Presets live in the console's own database;
// short-URL drafts are never stored.
type AccessPreset struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UUID        string    `json:"uuid" gorm:"uniqueIndex"`
	Name        string    `json:"name" gorm:"index"`
	Description string    `json:"description"`
	Mode        string    `json:"mode"`                       // "ALLOW" or "BLOCK"
	Countries   string    `json:"countries"`                  // Comma-separated ISO alpha-2 codes
	IPRules     string    `json:"ip_rules" gorm:"type:text"`  // JSON array of IPRangeRule
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IPRangeRule is a single IP or CIDR entry of a preset.
type IPRangeRule struct {
	CIDR        string `json:"cidr"`        // IP address or CIDR notation
	Description string `json:"description"` // Optional description
}
