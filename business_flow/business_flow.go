// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"errors"

	"github.com/Mashyrano/Pos-performance-Tracker/app/dto"
	"github.com/Mashyrano/Pos-performance-Tracker/app/services"
	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"github.com/Mashyrano/Pos-performance-Tracker/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func ToClientDTO(c *models.Client) dto.ClientDTO {
	return dto.ClientDTO{
		ID:           c.ID,
		TerminalID:   c.TerminalID,
		PhysicalTID:  c.PhysicalTID,
		Model:        c.Model,
		MerchantName: c.MerchantName,
		City:         c.City,
		Group:        c.Group,
		Branch:       c.Branch,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func ToClientDTOs(clients []*models.Client) []dto.ClientDTO {
	items := make([]dto.ClientDTO, 0, len(clients))
	for _, c := range clients {
		items = append(items, ToClientDTO(c))
	}
	return items
}

func ToTransactionDTO(t *models.Transaction) dto.TransactionDTO {
	return dto.TransactionDTO{
		ID:         t.ID,
		TerminalID: t.TerminalID,
		Date:       t.Date,
		Volume:     t.Volume,
		Value:      t.Value,
	}
}

func ToTransactionDTOs(txs []*models.Transaction) []dto.TransactionDTO {
	items := make([]dto.TransactionDTO, 0, len(txs))
	for _, t := range txs {
		items = append(items, ToTransactionDTO(t))
	}
	return items
}

func clientFromRequest(req *dto.ClientRequest) *models.Client {
	return &models.Client{
		TerminalID:   req.TerminalID,
		PhysicalTID:  req.PhysicalTID,
		Model:        req.Model,
		MerchantName: req.MerchantName,
		City:         req.City,
		Group:        req.Group,
		Branch:       req.Branch,
	}
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

// flowLogger returns logger with the request id, endpoint and client IP of ctx attached
func flowLogger(ctx context.Context, logger logrus.FieldLogger) logrus.FieldLogger {
	fields := logrus.Fields{}
	if id := utils.RequestIDFrom(ctx); id != "" {
		fields["request_id"] = id
	}
	if endpoint := utils.EndpointFrom(ctx); endpoint != "" {
		fields["endpoint"] = endpoint
	}
	if ip := utils.IPAddressFrom(ctx); ip != "" {
		fields["ip_address"] = ip
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.WithFields(fields)
}

// invalidateReports drops cached reports after a data change. Cache failures
// are logged and never fail the mutation.
func invalidateReports(ctx context.Context, cache services.ReportCache, logger logrus.FieldLogger) {
	if err := cache.Invalidate(ctx); err != nil {
		flowLogger(ctx, logger).WithError(err).Warn("failed to invalidate report cache")
	}
}
