// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepositoryImpl implements TransactionRepository interface
type TransactionRepositoryImpl struct {
	*BaseRepository[models.Transaction, models.TransactionFilter]
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &TransactionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Transaction, models.TransactionFilter](db),
	}
}

// applyFilter applies filter criteria to a GORM query
func (r *TransactionRepositoryImpl) applyFilter(query *gorm.DB, filter models.TransactionFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.TerminalID != nil {
		query = query.Where("terminal_id = ?", *filter.TerminalID)
	}
	if filter.Group != nil {
		query = query.Where("terminal_id IN (?)",
			query.Session(&gorm.Session{NewDB: true}).
				Model(&models.Client{}).
				Select("terminal_id").
				Where("group_name = ?", *filter.Group))
	}
	if filter.DateFrom != nil {
		query = query.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("date < ?", *filter.DateTo)
	}
	return query
}

// ByFilter retrieves transactions based on filter criteria
func (r *TransactionRepositoryImpl) ByFilter(ctx context.Context, filter models.TransactionFilter, orderBy string, limit, offset int) ([]*models.Transaction, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Transaction{}), filter)

	if orderBy == "" {
		orderBy = "date ASC, id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var transactions []*models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

// Count returns the number of transactions matching the filter
func (r *TransactionRepositoryImpl) Count(ctx context.Context, filter models.TransactionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Transaction{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any transaction matching the filter exists
func (r *TransactionRepositoryImpl) Exists(ctx context.Context, filter models.TransactionFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpsertBatch inserts transactions, overwriting volume and value of rows that
// already exist for the same (terminal_id, date)
func (r *TransactionRepositoryImpl) UpsertBatch(ctx context.Context, transactions []*models.Transaction) (err error) {
	if len(transactions) == 0 {
		return nil
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	defer finish(db, shouldCommit, &err)

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "terminal_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"volume", "value"}),
	}).CreateInBatches(transactions, 500).Error
	if err != nil {
		return fmt.Errorf("failed to upsert transactions: %w", err)
	}
	return nil
}

// DeleteByFilter removes transactions matching the filter; an empty filter removes all of them
func (r *TransactionRepositoryImpl) DeleteByFilter(ctx context.Context, filter models.TransactionFilter) (affected int64, err error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, err
	}
	defer finish(db, shouldCommit, &err)

	query := db
	if filter.IsEmpty() {
		query = query.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	result := r.applyFilter(query, filter).Delete(&models.Transaction{})
	if result.Error != nil {
		err = result.Error
		return 0, err
	}
	return result.RowsAffected, nil
}
