// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"github.com/Mashyrano/Pos-performance-Tracker/utils"
	"gorm.io/gorm"
)

// ClientRepositoryImpl implements ClientRepository interface
type ClientRepositoryImpl struct {
	*BaseRepository[models.Client, models.ClientFilter]
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &ClientRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Client, models.ClientFilter](db),
	}
}

// ByTerminalID retrieves a client by its terminal ID
func (r *ClientRepositoryImpl) ByTerminalID(ctx context.Context, terminalID string) (*models.Client, error) {
	items, err := r.ByFilter(ctx, models.ClientFilter{TerminalID: &terminalID}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ByGroup retrieves every client of a group ordered by ID
func (r *ClientRepositoryImpl) ByGroup(ctx context.Context, group string) ([]*models.Client, error) {
	return r.ByFilter(ctx, models.ClientFilter{Group: &group}, "id ASC", 0, 0)
}

// ListGroups returns the distinct group names
func (r *ClientRepositoryImpl) ListGroups(ctx context.Context) ([]string, error) {
	db := r.getDB(ctx)

	var groups []string
	err := db.Model(&models.Client{}).
		Distinct("group_name").
		Order("group_name ASC").
		Pluck("group_name", &groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list client groups: %w", err)
	}
	return groups, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *ClientRepositoryImpl) applyFilter(query *gorm.DB, filter models.ClientFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.TerminalID != nil {
		query = query.Where("terminal_id = ?", *filter.TerminalID)
	}
	if filter.Group != nil {
		query = query.Where("group_name = ?", *filter.Group)
	}
	return query
}

// ByFilter retrieves clients based on filter criteria
func (r *ClientRepositoryImpl) ByFilter(ctx context.Context, filter models.ClientFilter, orderBy string, limit, offset int) ([]*models.Client, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Client{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var clients []*models.Client
	if err := query.Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

// Count returns the number of clients matching the filter
func (r *ClientRepositoryImpl) Count(ctx context.Context, filter models.ClientFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Client{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any client matching the filter exists
func (r *ClientRepositoryImpl) Exists(ctx context.Context, filter models.ClientFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update replaces every editable field of a client by ID
func (r *ClientRepositoryImpl) Update(ctx context.Context, client *models.Client) (err error) {
	if client == nil {
		return errors.New("client payload is nil")
	}
	if client.ID == 0 {
		return errors.New("client ID is required for update")
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	defer finish(db, shouldCommit, &err)

	updates := map[string]any{
		"terminal_id":   client.TerminalID,
		"physical_tid":  client.PhysicalTID,
		"model":         client.Model,
		"merchant_name": client.MerchantName,
		"city":          client.City,
		"group_name":    client.Group,
		"branch":        client.Branch,
		"updated_at":    utils.UTCNow(),
	}

	result := db.Model(&models.Client{}).
		Where("id = ?", client.ID).
		Updates(updates)
	if result.Error != nil {
		err = result.Error
		return err
	}
	if result.RowsAffected == 0 {
		err = gorm.ErrRecordNotFound
		return err
	}
	return nil
}

// DeleteByID removes a single client and reports how many rows went away
func (r *ClientRepositoryImpl) DeleteByID(ctx context.Context, id uint) (int64, error) {
	return r.DeleteByFilter(ctx, models.ClientFilter{ID: &id})
}

// DeleteByFilter removes clients matching the filter; an empty filter removes all of them
func (r *ClientRepositoryImpl) DeleteByFilter(ctx context.Context, filter models.ClientFilter) (affected int64, err error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, err
	}
	defer finish(db, shouldCommit, &err)

	query := db
	if filter.IsEmpty() {
		query = query.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	result := r.applyFilter(query, filter).Delete(&models.Client{})
	if result.Error != nil {
		err = result.Error
		return 0, err
	}
	return result.RowsAffected, nil
}
