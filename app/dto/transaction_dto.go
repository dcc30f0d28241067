package dto

import "time"

type TransactionDTO struct {
	ID         uint      `json:"id"`
	TerminalID string    `json:"terminal_id"`
	Date       time.Time `json:"date"`
	Volume     int64     `json:"volume"`
	Value      float64   `json:"value"`
}

type ListTransactionsResponse struct {
	Message string           `json:"message"`
	Items   []TransactionDTO `json:"items"`
}

// IngestTransactionsResponse summarises one spreadsheet ingestion
type IngestTransactionsResponse struct {
	Message                string   `json:"message"`
	Upserted               int      `json:"upserted"`
	SkippedUnknownTerminal int      `json:"skipped_unknown_terminal"`
	Sheets                 []string `json:"sheets"`
}

// DeleteByDateRangeRequest is the body of POST /transactions/delete
type DeleteByDateRangeRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

type GroupSummaryResponse struct {
	Message     string  `json:"message"`
	Group       string  `json:"group"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	TotalVolume int64   `json:"total_volume"`
	TotalValue  float64 `json:"total_value"`
}
