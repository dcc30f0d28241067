package dto

import "time"

// ClientRequest is the payload of client create and full-replace update
type ClientRequest struct {
	TerminalID   string `json:"terminal_id" validate:"required,max=50"`
	PhysicalTID  string `json:"physical_tid" validate:"required,max=50"`
	Model        string `json:"model" validate:"required,max=80"`
	MerchantName string `json:"merchant_name" validate:"required,max=80"`
	City         string `json:"city" validate:"required,max=50"`
	Group        string `json:"group" validate:"required,max=50"`
	Branch       string `json:"branch" validate:"required,max=50"`
}

type ClientDTO struct {
	ID           uint      `json:"id"`
	TerminalID   string    `json:"terminal_id"`
	PhysicalTID  string    `json:"physical_tid"`
	Model        string    `json:"model"`
	MerchantName string    `json:"merchant_name"`
	City         string    `json:"city"`
	Group        string    `json:"group"`
	Branch       string    `json:"branch"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ClientResponse struct {
	Message string    `json:"message"`
	Client  ClientDTO `json:"client"`
}

type ListClientsResponse struct {
	Message string      `json:"message"`
	Items   []ClientDTO `json:"items"`
}

type ListGroupsResponse struct {
	Message string   `json:"message"`
	Groups  []string `json:"groups"`
}

// ImportClientsResponse summarises a spreadsheet client import
type ImportClientsResponse struct {
	Message     string   `json:"message"`
	Inserted    int      `json:"inserted"`
	Skipped     int      `json:"skipped"`
	SkipReasons []string `json:"skip_reasons"`
}

// DeleteGroupResponse reports both steps of a group delete
type DeleteGroupResponse struct {
	Message             string `json:"message"`
	Group               string `json:"group"`
	DeletedClients      int64  `json:"deleted_clients"`
	DeletedTransactions int64  `json:"deleted_transactions"`
}

type DeleteAllClientsResponse struct {
	Message             string `json:"message"`
	DeletedClients      int64  `json:"deleted_clients"`
	DeletedTransactions int64  `json:"deleted_transactions"`
}
