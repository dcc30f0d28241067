// Package models contains domain entities for POS terminal tracking
package models

import (
	"time"
)

// Client represents a POS terminal owned by a merchant
// Table: clients
// Unique by TerminalID
// Group and Branch are plain grouping keys, not separate entities
type Client struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TerminalID   string `gorm:"size:50;not null;uniqueIndex:uk_clients_terminal_id" json:"terminal_id"`
	PhysicalTID  string `gorm:"column:physical_tid;size:50;not null" json:"physical_tid"`
	Model        string `gorm:"size:80;not null" json:"model"`
	MerchantName string `gorm:"size:80;not null" json:"merchant_name"`
	City         string `gorm:"size:50;not null" json:"city"`
	Group        string `gorm:"column:group_name;size:50;not null;index:idx_clients_group_name" json:"group"`
	Branch       string `gorm:"size:50;not null;index:idx_clients_branch" json:"branch"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Client) TableName() string {
	return "clients"
}

// ClientFilter represents filter criteria for client queries
type ClientFilter struct {
	ID         *uint
	TerminalID *string
	Group      *string
}

// IsEmpty reports whether the filter selects every client
func (f ClientFilter) IsEmpty() bool {
	return f.ID == nil && f.TerminalID == nil && f.Group == nil
}
