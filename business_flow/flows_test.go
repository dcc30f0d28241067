package businessflow_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Mashyrano/Pos-performance-Tracker/app/services"
	businessflow "github.com/Mashyrano/Pos-performance-Tracker/business_flow"
	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"github.com/Mashyrano/Pos-performance-Tracker/repository"
	testingutil "github.com/Mashyrano/Pos-performance-Tracker/testing"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type flows struct {
	store        *testingutil.MemoryStore
	clients      businessflow.ClientFlow
	transactions businessflow.TransactionFlow
	reports      businessflow.ReportFlow
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newFlows(t *testing.T) *flows {
	t.Helper()
	store := testingutil.NewMemoryStore()
	return newFlowsWithRepo(t, store, store.Transactions())
}

func newFlowsWithRepo(t *testing.T, store *testingutil.MemoryStore, txRepo repository.TransactionRepository) *flows {
	t.Helper()
	return newFlowsWith(t, store, txRepo, services.NewNoopReportCache())
}

func newFlowsWith(t *testing.T, store *testingutil.MemoryStore, txRepo repository.TransactionRepository, cache services.ReportCache) *flows {
	t.Helper()
	logger := quietLogger()

	txFlow := businessflow.NewTransactionFlow(store.Clients(), txRepo, store.Transactor(), cache, logger)
	return &flows{
		store:        store,
		transactions: txFlow,
		clients:      businessflow.NewClientFlow(store.Clients(), txFlow, store.Transactor(), cache, logger),
		reports:      businessflow.NewReportFlow(store.Clients(), txRepo, cache, t.TempDir(), logger),
	}
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func tx(terminalID, date string, volume int64, value float64) *models.Transaction {
	return &models.Transaction{TerminalID: terminalID, Date: day(date), Volume: volume, Value: value}
}

func feed(t *testing.T, sheets ...[][]any) *bytes.Reader {
	t.Helper()
	content, err := testingutil.FeedWorkbook(sheets...)
	require.NoError(t, err)
	return bytes.NewReader(content)
}

// failAfterRepository upserts the first row of a batch and then fails
type failAfterRepository struct {
	repository.TransactionRepository
}

func (r failAfterRepository) UpsertBatch(ctx context.Context, txs []*models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	if err := r.TransactionRepository.UpsertBatch(ctx, txs[:1]); err != nil {
		return err
	}
	return errors.New("connection reset")
}

// recordingClientRepository keeps the filters passed to ByFilter
type recordingClientRepository struct {
	repository.ClientRepository
	filters []models.ClientFilter
}

func (r *recordingClientRepository) ByFilter(ctx context.Context, filter models.ClientFilter, orderBy string, limit, offset int) ([]*models.Client, error) {
	r.filters = append(r.filters, filter)
	return r.ClientRepository.ByFilter(ctx, filter, orderBy, limit, offset)
}
