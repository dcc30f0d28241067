package businessflow

import (
	"context"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/Mashyrano/Pos-performance-Tracker/app/dto"
	"github.com/Mashyrano/Pos-performance-Tracker/app/services"
	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"github.com/Mashyrano/Pos-performance-Tracker/repository"
	"github.com/Mashyrano/Pos-performance-Tracker/utils"
	"github.com/sirupsen/logrus"
)

// Column names of the transaction feed sheets
const (
	colFeedTerminalID = "TerminalID"
	colFeedLastSeen   = "LastSeen"
	colFeedSalesCount = "SalesCount"
	colFeedSumOfSales = "SumofSales"
)

var transactionFeedColumns = []string{colFeedTerminalID, colFeedLastSeen, colFeedSalesCount, colFeedSumOfSales}

// LastSeen must carry a fraction of one to six digits, e.g. 2024-01-01 08:30:00.123456
var lastSeenPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{1,6}$`)

// TransactionFlow handles transaction ingestion, listings and bulk deletes
type TransactionFlow interface {
	IngestTransactions(ctx context.Context, r io.Reader) (*dto.IngestTransactionsResponse, error)
	ListTransactions(ctx context.Context) (*dto.ListTransactionsResponse, error)
	ListByTerminal(ctx context.Context, terminalID string) (*dto.ListTransactionsResponse, error)
	ListByGroup(ctx context.Context, group string) (*dto.ListTransactionsResponse, error)
	GroupSummary(ctx context.Context, group, startDate, endDate string) (*dto.GroupSummaryResponse, error)
	DeleteByGroup(ctx context.Context, group string) (*dto.DeleteResponse, error)
	DeleteByDateRange(ctx context.Context, req *dto.DeleteByDateRangeRequest) (*dto.DeleteResponse, error)
	DeleteAll(ctx context.Context) (*dto.DeleteResponse, error)
}

// TransactionFlowImpl implements TransactionFlow
type TransactionFlowImpl struct {
	clientRepo      repository.ClientRepository
	transactionRepo repository.TransactionRepository
	transactor      repository.Transactor
	cache           services.ReportCache
	logger          logrus.FieldLogger
}

func NewTransactionFlow(
	clientRepo repository.ClientRepository,
	transactionRepo repository.TransactionRepository,
	transactor repository.Transactor,
	cache services.ReportCache,
	logger logrus.FieldLogger,
) TransactionFlow {
	return &TransactionFlowImpl{
		clientRepo:      clientRepo,
		transactionRepo: transactionRepo,
		transactor:      transactor,
		cache:           cache,
		logger:          logger.WithField("module", "transaction_flow"),
	}
}

// IngestTransactions upserts every row of every sheet whose terminal is a
// known client. Rows for unknown terminals are dropped. A malformed row fails
// the whole upload and nothing is written.
func (f *TransactionFlowImpl) IngestTransactions(ctx context.Context, r io.Reader) (*dto.IngestTransactionsResponse, error) {
	log := flowLogger(ctx, f.logger)

	xl, err := openWorkbook(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = xl.Close() }()

	clients, err := f.clientRepo.ByFilter(ctx, models.ClientFilter{}, "", 0, 0)
	if err != nil {
		return nil, NewBusinessError("INGEST_TRANSACTIONS_FAILED", "Failed to load clients", err)
	}
	known := make(map[string]struct{}, len(clients))
	for _, c := range clients {
		known[c.TerminalID] = struct{}{}
	}

	var (
		batch   []*models.Transaction
		skipped int
	)
	position := make(map[models.TransactionKey]int)
	sheetNames := xl.GetSheetList()
	for _, name := range sheetNames {
		sheet, err := readSheet(xl, name, transactionFeedColumns)
		if err != nil {
			return nil, err
		}

		for i, row := range sheet.rows {
			terminalID := sheet.cell(row, colFeedTerminalID)
			if _, ok := known[terminalID]; !ok {
				skipped++
				continue
			}

			tx, err := parseFeedRow(sheet, row, terminalID, i+2)
			if err != nil {
				return nil, err
			}

			key := tx.Key()
			if idx, ok := position[key]; ok {
				batch[idx] = tx
				continue
			}
			position[key] = len(batch)
			batch = append(batch, tx)
		}
	}

	err = f.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		return f.transactionRepo.UpsertBatch(txCtx, batch)
	})
	if err != nil {
		log.WithError(err).WithField("rows", len(batch)).Error("transaction ingestion rolled back")
		return nil, NewBusinessError("INGEST_TRANSACTIONS_FAILED", "Failed to add transactions", err)
	}

	transactionsUpsertedTotal.Add(float64(len(batch)))
	transactionsSkippedTotal.Add(float64(skipped))
	if len(batch) > 0 {
		invalidateReports(ctx, f.cache, f.logger)
	}
	log.WithFields(logrus.Fields{
		"sheets":   len(sheetNames),
		"upserted": len(batch),
		"skipped":  skipped,
	}).Info("transactions ingested")

	return &dto.IngestTransactionsResponse{
		Message:                "Transactions added successfully!",
		Upserted:               len(batch),
		SkippedUnknownTerminal: skipped,
		Sheets:                 sheetNames,
	}, nil
}

func parseFeedRow(sheet *sheetRows, row []string, terminalID string, line int) (*models.Transaction, error) {
	lastSeen := sheet.cell(row, colFeedLastSeen)
	if !lastSeenPattern.MatchString(lastSeen) {
		return nil, NewBusinessErrorf("INVALID_TIMESTAMP", "Sheet %s row %d: LastSeen %q does not match YYYY-MM-DD HH:MM:SS.ffffff", ErrInvalidTimestamp, sheet.name, line, lastSeen)
	}
	date, err := time.ParseInLocation(utils.LastSeenLayout, lastSeen, time.UTC)
	if err != nil {
		return nil, NewBusinessErrorf("INVALID_TIMESTAMP", "Sheet %s row %d: LastSeen %q is not a valid timestamp", fmt.Errorf("%w: %v", ErrInvalidTimestamp, err), sheet.name, line, lastSeen)
	}

	volume, err := parseCount(sheet.cell(row, colFeedSalesCount))
	if err != nil {
		return nil, NewBusinessErrorf("INVALID_NUMBER", "Sheet %s row %d: invalid SalesCount", fmt.Errorf("%w: %v", ErrInvalidNumber, err), sheet.name, line)
	}
	value, err := strconv.ParseFloat(sheet.cell(row, colFeedSumOfSales), 64)
	if err != nil {
		return nil, NewBusinessErrorf("INVALID_NUMBER", "Sheet %s row %d: invalid SumofSales", fmt.Errorf("%w: %v", ErrInvalidNumber, err), sheet.name, line)
	}

	return &models.Transaction{
		TerminalID: terminalID,
		Date:       date,
		Volume:     volume,
		Value:      value,
	}, nil
}

// parseCount accepts integers and integral floats such as "12.0"
func parseCount(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	fv, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if fv != math.Trunc(fv) || math.IsInf(fv, 0) {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int64(fv), nil
}

func (f *TransactionFlowImpl) ListTransactions(ctx context.Context) (*dto.ListTransactionsResponse, error) {
	txs, err := f.transactionRepo.ByFilter(ctx, models.TransactionFilter{}, "", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSACTIONS_FAILED", "Failed to list transactions", err)
	}
	return &dto.ListTransactionsResponse{
		Message: "Transactions retrieved successfully",
		Items:   ToTransactionDTOs(txs),
	}, nil
}

func (f *TransactionFlowImpl) ListByTerminal(ctx context.Context, terminalID string) (*dto.ListTransactionsResponse, error) {
	txs, err := f.transactionRepo.ByFilter(ctx, models.TransactionFilter{TerminalID: &terminalID}, "", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSACTIONS_FAILED", "Failed to list transactions", err)
	}
	if len(txs) == 0 {
		return nil, NewBusinessError("TRANSACTIONS_NOT_FOUND", "No transactions found for this terminal ID", ErrTransactionsNotFound)
	}
	return &dto.ListTransactionsResponse{
		Message: "Transactions retrieved successfully",
		Items:   ToTransactionDTOs(txs),
	}, nil
}

// ListByGroup lists a group's transactions. A known group without
// transactions yields an empty list.
func (f *TransactionFlowImpl) ListByGroup(ctx context.Context, group string) (*dto.ListTransactionsResponse, error) {
	if err := f.requireGroup(ctx, group); err != nil {
		return nil, err
	}

	txs, err := f.transactionRepo.ByFilter(ctx, models.TransactionFilter{Group: &group}, "", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_TRANSACTIONS_FAILED", "Failed to list transactions", err)
	}
	message := "Transactions retrieved successfully"
	if len(txs) == 0 {
		message = "No transactions found for this group"
	}
	return &dto.ListTransactionsResponse{
		Message: message,
		Items:   ToTransactionDTOs(txs),
	}, nil
}

// GroupSummary totals a group's volume and value in the date range
func (f *TransactionFlowImpl) GroupSummary(ctx context.Context, group, startDate, endDate string) (*dto.GroupSummaryResponse, error) {
	dr, err := ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	txs, err := f.transactionRepo.ByFilter(ctx, models.TransactionFilter{
		Group:    &group,
		DateFrom: &dr.Start,
		DateTo:   &dr.End,
	}, "", 0, 0)
	if err != nil {
		return nil, NewBusinessError("GROUP_SUMMARY_FAILED", "Failed to summarise group transactions", err)
	}

	volume, value := groupSummary(txs)
	return &dto.GroupSummaryResponse{
		Message:     "Group summary retrieved successfully",
		Group:       group,
		StartDate:   utils.FormatDate(dr.Start),
		EndDate:     utils.FormatDate(dr.LastDay()),
		TotalVolume: volume,
		TotalValue:  value,
	}, nil
}

func (f *TransactionFlowImpl) DeleteByGroup(ctx context.Context, group string) (*dto.DeleteResponse, error) {
	if err := f.requireGroup(ctx, group); err != nil {
		return nil, err
	}

	deleted, err := f.transactionRepo.DeleteByFilter(ctx, models.TransactionFilter{Group: &group})
	if err != nil {
		return nil, NewBusinessError("DELETE_TRANSACTIONS_FAILED", "Failed to delete transactions", err)
	}
	if deleted == 0 {
		return nil, NewBusinessError("TRANSACTIONS_NOT_FOUND", "No transactions found for this group", ErrTransactionsNotFound)
	}
	invalidateReports(ctx, f.cache, f.logger)

	return &dto.DeleteResponse{
		Message: fmt.Sprintf("All transactions for group %s deleted successfully!", group),
		Deleted: deleted,
	}, nil
}

func (f *TransactionFlowImpl) DeleteByDateRange(ctx context.Context, req *dto.DeleteByDateRangeRequest) (*dto.DeleteResponse, error) {
	if req == nil {
		return nil, NewBusinessError("DATE_RANGE_REQUIRED", "Start date and end date are required", ErrDateRangeRequired)
	}
	dr, err := ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	deleted, err := f.transactionRepo.DeleteByFilter(ctx, models.TransactionFilter{DateFrom: &dr.Start, DateTo: &dr.End})
	if err != nil {
		return nil, NewBusinessError("DELETE_TRANSACTIONS_FAILED", "Failed to delete transactions", err)
	}
	if deleted == 0 {
		return nil, NewBusinessError("TRANSACTIONS_NOT_FOUND", "No transactions found in this date range", ErrTransactionsNotFound)
	}
	invalidateReports(ctx, f.cache, f.logger)

	return &dto.DeleteResponse{
		Message: fmt.Sprintf("%d transactions deleted successfully!", deleted),
		Deleted: deleted,
	}, nil
}

func (f *TransactionFlowImpl) DeleteAll(ctx context.Context) (*dto.DeleteResponse, error) {
	deleted, err := f.transactionRepo.DeleteByFilter(ctx, models.TransactionFilter{})
	if err != nil {
		return nil, NewBusinessError("DELETE_TRANSACTIONS_FAILED", "Failed to delete transactions", err)
	}
	if deleted == 0 {
		return nil, NewBusinessError("TRANSACTIONS_NOT_FOUND", "No transactions found", ErrTransactionsNotFound)
	}
	invalidateReports(ctx, f.cache, f.logger)

	return &dto.DeleteResponse{
		Message: "All transactions deleted successfully!",
		Deleted: deleted,
	}, nil
}

func (f *TransactionFlowImpl) requireGroup(ctx context.Context, group string) error {
	exists, err := f.clientRepo.Exists(ctx, models.ClientFilter{Group: &group})
	if err != nil {
		return NewBusinessError("GET_GROUP_FAILED", "Failed to look up group", err)
	}
	if !exists {
		return NewBusinessErrorf("GROUP_NOT_FOUND", "Group %s not found", ErrGroupNotFound, group)
	}
	return nil
}
