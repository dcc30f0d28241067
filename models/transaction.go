package models

import (
	"time"
)

// Transaction is one terminal's sales figures at a point in time
// Table: transactions
// Unique by (terminal_id, date); terminal_id references clients.terminal_id
// Volume is the sales count, Value the summed sales amount
type Transaction struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TerminalID string    `gorm:"size:50;not null;uniqueIndex:uk_transactions_terminal_date,priority:1;index:idx_transactions_terminal_id" json:"terminal_id"`
	Date       time.Time `gorm:"not null;uniqueIndex:uk_transactions_terminal_date,priority:2;index:idx_transactions_date" json:"date"`
	Volume     int64     `gorm:"not null" json:"volume"`
	Value      float64   `gorm:"not null" json:"value"`

	Client *Client `gorm:"foreignKey:TerminalID;references:TerminalID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// TransactionFilter represents filter criteria for transaction queries.
// DateFrom is inclusive and DateTo exclusive.
type TransactionFilter struct {
	ID         *uint
	TerminalID *string
	Group      *string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// IsEmpty reports whether the filter selects every transaction
func (f TransactionFilter) IsEmpty() bool {
	return f.ID == nil && f.TerminalID == nil &&
		f.Group == nil && f.DateFrom == nil && f.DateTo == nil
}

// Key returns the natural key of the transaction
func (t Transaction) Key() TransactionKey {
	return TransactionKey{TerminalID: t.TerminalID, Date: t.Date.UTC()}
}

// TransactionKey is the (terminal_id, date) natural key
type TransactionKey struct {
	TerminalID string
	Date       time.Time
}
