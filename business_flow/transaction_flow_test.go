package businessflow_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/Mashyrano/Pos-performance-Tracker/app/dto"
	businessflow "github.com/Mashyrano/Pos-performance-Tracker/business_flow"
	testingutil "github.com/Mashyrano/Pos-performance-Tracker/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestTransactions(t *testing.T) {
	ctx := context.Background()

	t.Run("ReingestOverwritesSameKey", func(t *testing.T) {
		f := newFlows(t)
		f.store.SeedClients(testingutil.NewClient("T1", "G1", "A"))

		_, err := f.transactions.IngestTransactions(ctx, feed(t, [][]any{
			testingutil.FeedRow("T1", "2024-01-01 00:00:00.000000", 5, 10.0),
		}))
		require.NoError(t, err)

		res, err := f.transactions.IngestTransactions(ctx, feed(t, [][]any{
			testingutil.FeedRow("T1", "2024-01-01 00:00:00.000000", 9, 20.0),
		}))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Upserted)

		list, err := f.transactions.ListByTerminal(ctx, "T1")
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		assert.Equal(t, int64(9), list.Items[0].Volume)
		assert.Equal(t, 20.0, list.Items[0].Value)
	})

	t.Run("UnknownTerminalDropped", func(t *testing.T) {
		f := newFlows(t)
		f.store.SeedClients(testingutil.NewClient("T1", "G1", "A"))

		res, err := f.transactions.IngestTransactions(ctx, feed(t, [][]any{
			testingutil.FeedRow("T1", "2024-01-01 10:00:00.5", 1, 3.5),
			testingutil.FeedRow("GHOST", "2024-01-01 10:00:00.5", 7, 70),
		}))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Upserted)
		assert.Equal(t, 1, res.SkippedUnknownTerminal)
		assert.Equal(t, 1, f.store.TransactionCount())
	})

	t.Run("LastRowWinsAcrossSheets", func(t *testing.T) {
		f := newFlows(t)
		f.store.SeedClients(testingutil.NewClient("SBM001", "G1", "A"))

		res, err := f.transactions.IngestTransactions(ctx, feed(t,
			[][]any{testingutil.FeedRow("SBM001", "2024-02-01 08:00:00.000001", 1, 1)},
			[][]any{testingutil.FeedRow("SBM001", "2024-02-01 08:00:00.000001", 4, 40)},
		))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Upserted)
		assert.Equal(t, []string{"Feed1", "Feed2"}, res.Sheets)

		list, err := f.transactions.ListTransactions(ctx)
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		assert.Equal(t, int64(4), list.Items[0].Volume)
	})

	t.Run("IntegralFloatCountAccepted", func(t *testing.T) {
		f := newFlows(t)
		f.store.SeedClients(testingutil.NewClient("T1", "G1", "A"))

		res, err := f.transactions.IngestTransactions(ctx, feed(t, [][]any{
			testingutil.FeedRow("T1", "2024-01-01 00:00:00.0", "12.0", "99.95"),
		}))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Upserted)
	})

	t.Run("TimestampWithoutFractionRejected", func(t *testing.T) {
		f := newFlows(t)
		f.store.SeedClients(testingutil.NewClient("T1", "G1", "A"))

		_, err := f.transactions.IngestTransactions(ctx, feed(t, [][]any{
			testingutil.FeedRow("T1", "2024-01-01 00:00:00.000000", 1, 1),
			testingutil.FeedRow("T1", "2024-01-02 00:00:00", 1, 1),
		}))
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidTimestamp(err))
		assert.True(t, businessflow.IsBadRequest(err))
		assert.Zero(t, f.store.TransactionCount())
	})

	t.Run("NonNumericSalesRejected", func(t *testing.T) {
		f := newFlows(t)
		f.store.SeedClients(testingutil.NewClient("T1", "G1", "A"))

		_, err := f.transactions.IngestTransactions(ctx, feed(t, [][]any{
			testingutil.FeedRow("T1", "2024-01-01 00:00:00.000000", "many", 1),
		}))
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidNumber(err))

		_, err = f.transactions.IngestTransactions(ctx, feed(t, [][]any{
			testingutil.FeedRow("T1", "2024-01-01 00:00:00.000000", 2.5, 1),
		}))
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidNumber(err))
	})

	t.Run("MissingColumn", func(t *testing.T) {
		f := newFlows(t)
		content, err := testingutil.BuildWorkbook(testingutil.Sheet{
			Name:   "Feed1",
			Header: []string{"TerminalID", "LastSeen", "SalesCount"},
			Rows:   [][]any{{"T1", "2024-01-01 00:00:00.0", 1}},
		})
		require.NoError(t, err)

		_, err = f.transactions.IngestTransactions(ctx, bytes.NewReader(content))
		require.Error(t, err)
		assert.True(t, businessflow.IsMissingColumn(err))
	})

	t.Run("NotASpreadsheet", func(t *testing.T) {
		f := newFlows(t)
		_, err := f.transactions.IngestTransactions(ctx, bytes.NewReader([]byte("TerminalID,LastSeen\n")))
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidSpreadsheet(err))
	})

	t.Run("FailedBatchRollsBack", func(t *testing.T) {
		store := testingutil.NewMemoryStore()
		f := newFlowsWithRepo(t, store, failAfterRepository{store.Transactions()})
		store.SeedClients(testingutil.NewClient("T1", "G1", "A"), testingutil.NewClient("T2", "G1", "A"))

		_, err := f.transactions.IngestTransactions(ctx, feed(t, [][]any{
			testingutil.FeedRow("T1", "2024-01-01 00:00:00.0", 1, 1),
			testingutil.FeedRow("T2", "2024-01-01 00:00:00.0", 1, 1),
		}))
		require.Error(t, err)
		assert.Equal(t, "INGEST_TRANSACTIONS_FAILED", businessflow.ErrorCode(err))
		assert.Zero(t, store.TransactionCount())
	})
}

func TestTransactionListings(t *testing.T) {
	ctx := context.Background()
	f := newFlows(t)
	f.store.SeedClients(
		testingutil.NewClient("SBM001", "G1", "A"),
		testingutil.NewClient("FCM002", "G1", "A"),
		testingutil.NewClient("SBM900", "G2", "B"),
	)
	f.store.SeedTransactions(
		tx("SBM001", "2024-02-01", 2, 100),
		tx("FCM002", "2024-02-01", 1, 50),
		tx("SBM001", "2024-02-03", 3, 30),
	)

	t.Run("ByTerminalNotFound", func(t *testing.T) {
		_, err := f.transactions.ListByTerminal(ctx, "SBM900")
		require.Error(t, err)
		assert.True(t, businessflow.IsTransactionsNotFound(err))
	})

	t.Run("ByGroup", func(t *testing.T) {
		res, err := f.transactions.ListByGroup(ctx, "G1")
		require.NoError(t, err)
		assert.Len(t, res.Items, 3)
	})

	t.Run("ByGroupWithoutTransactions", func(t *testing.T) {
		res, err := f.transactions.ListByGroup(ctx, "G2")
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.Equal(t, "No transactions found for this group", res.Message)
	})

	t.Run("ByUnknownGroup", func(t *testing.T) {
		_, err := f.transactions.ListByGroup(ctx, "nope")
		require.Error(t, err)
		assert.True(t, businessflow.IsGroupNotFound(err))
	})

	t.Run("GroupSummaryIncludesEndDay", func(t *testing.T) {
		res, err := f.transactions.GroupSummary(ctx, "G1", "2024-02-01", "2024-02-01")
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.TotalVolume)
		assert.Equal(t, 150.0, res.TotalValue)

		res, err = f.transactions.GroupSummary(ctx, "G1", "2024-02-01", "2024-02-03")
		require.NoError(t, err)
		assert.Equal(t, int64(6), res.TotalVolume)
		assert.Equal(t, 180.0, res.TotalValue)
	})

	t.Run("GroupSummaryBadDates", func(t *testing.T) {
		_, err := f.transactions.GroupSummary(ctx, "G1", "01/02/2024", "2024-02-03")
		assert.True(t, businessflow.IsInvalidDateFormat(err))

		_, err = f.transactions.GroupSummary(ctx, "G1", "2024-02-03", "2024-02-01")
		assert.True(t, businessflow.IsValidation(err))
	})
}

func TestTransactionDeletes(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) *flows {
		f := newFlows(t)
		f.store.SeedClients(
			testingutil.NewClient("SBM001", "G1", "A"),
			testingutil.NewClient("SBM900", "G2", "B"),
		)
		f.store.SeedTransactions(
			tx("SBM001", "2024-02-01", 2, 100),
			tx("SBM001", "2024-02-02", 2, 100),
			tx("SBM900", "2024-02-05", 1, 10),
		)
		return f
	}

	t.Run("ByDateRange", func(t *testing.T) {
		f := seed(t)
		res, err := f.transactions.DeleteByDateRange(ctx, &dto.DeleteByDateRangeRequest{StartDate: "2024-02-01", EndDate: "2024-02-02"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.Deleted)
		assert.Equal(t, 1, f.store.TransactionCount())
	})

	t.Run("ByDateRangeEmpty", func(t *testing.T) {
		f := seed(t)
		_, err := f.transactions.DeleteByDateRange(ctx, &dto.DeleteByDateRangeRequest{StartDate: "2023-01-01", EndDate: "2023-01-31"})
		require.Error(t, err)
		assert.True(t, businessflow.IsTransactionsNotFound(err))
	})

	t.Run("ByDateRangeRequiresBothDates", func(t *testing.T) {
		f := seed(t)
		_, err := f.transactions.DeleteByDateRange(ctx, &dto.DeleteByDateRangeRequest{StartDate: "2024-02-01"})
		assert.True(t, businessflow.IsDateRangeRequired(err))
	})

	t.Run("ByGroup", func(t *testing.T) {
		f := seed(t)
		res, err := f.transactions.DeleteByGroup(ctx, "G1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.Deleted)
		assert.Equal(t, 2, f.store.ClientCount())

		_, err = f.transactions.DeleteByGroup(ctx, "G1")
		assert.True(t, businessflow.IsTransactionsNotFound(err))
	})

	t.Run("All", func(t *testing.T) {
		f := seed(t)
		res, err := f.transactions.DeleteAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Deleted)

		_, err = f.transactions.DeleteAll(ctx)
		assert.True(t, businessflow.IsTransactionsNotFound(err))
	})
}
