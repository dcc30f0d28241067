// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/Mashyrano/Pos-performance-Tracker/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// Transactor runs fn so that every repository call made with the ctx it
// receives commits or rolls back together
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}

// ClientRepository defines operations for clients
type ClientRepository interface {
	Repository[models.Client, models.ClientFilter]
	ByTerminalID(ctx context.Context, terminalID string) (*models.Client, error)
	ByGroup(ctx context.Context, group string) ([]*models.Client, error)
	ListGroups(ctx context.Context) ([]string, error)
	Update(ctx context.Context, client *models.Client) error
	DeleteByID(ctx context.Context, id uint) (int64, error)
	DeleteByFilter(ctx context.Context, filter models.ClientFilter) (int64, error)
}

// TransactionRepository defines operations for transactions
type TransactionRepository interface {
	Repository[models.Transaction, models.TransactionFilter]
	UpsertBatch(ctx context.Context, transactions []*models.Transaction) error
	DeleteByFilter(ctx context.Context, filter models.TransactionFilter) (int64, error)
}
