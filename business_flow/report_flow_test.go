package businessflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/Mashyrano/Pos-performance-Tracker/app/dto"
	businessflow "github.com/Mashyrano/Pos-performance-Tracker/business_flow"
	"github.com/Mashyrano/Pos-performance-Tracker/app/services"
	testingutil "github.com/Mashyrano/Pos-performance-Tracker/testing"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededReports(t *testing.T) *flows {
	t.Helper()
	f := newFlows(t)
	f.store.SeedClients(
		testingutil.NewClient("SBM001", "G1", "A"),
		testingutil.NewClient("FCM002", "G1", "A"),
		testingutil.NewClient("ZPZ003", "G1", "B"),
		testingutil.NewClient("XYZ004", "G1", "B"),
		testingutil.NewClient("CBZ100", "G2", "C"),
	)
	f.store.SeedTransactions(
		tx("SBM001", "2024-02-01", 2, 100),
		tx("FCM002", "2024-02-01", 1, 50),
		tx("XYZ004", "2024-02-01", 9, 999),
		tx("SBM001", "2024-02-03", 1, 0.1),
		tx("ZPZ003", "2024-02-03", 1, 0.2),
		tx("CBZ100", "2024-03-01", 5, 5),
	)
	return f
}

func report(group, start, end string) *dto.ReportRequest {
	return &dto.ReportRequest{Group: group, StartDate: start, EndDate: end}
}

func TestCumulativeByBranch(t *testing.T) {
	ctx := context.Background()

	t.Run("TwoClassesInOneBranch", func(t *testing.T) {
		f := newFlows(t)
		f.store.SeedClients(
			testingutil.NewClient("SBM001", "G1", "A"),
			testingutil.NewClient("FCM002", "G1", "A"),
		)
		f.store.SeedTransactions(
			tx("SBM001", "2024-02-01", 2, 100),
			tx("FCM002", "2024-02-01", 1, 50),
		)

		res, err := f.reports.CumulativeByBranch(ctx, report("G1", "2024-02-01", "2024-02-01"))
		require.NoError(t, err)
		require.Len(t, res.Rows, 1)
		assert.Equal(t, dto.CumulativeBranchRow{
			NumTerminals: 2,
			Branch:       "A",
			ValueInZiG:   100,
			VolumeInZiG:  2,
			ValueInUSD:   50,
			VolumeInUSD:  1,
		}, res.Rows[0])
	})

	t.Run("UnclassifiedTerminalsCountButDoNotSum", func(t *testing.T) {
		f := seededReports(t)
		res, err := f.reports.CumulativeByBranch(ctx, report("G1", "2024-02-01", "2024-02-03"))
		require.NoError(t, err)
		require.Len(t, res.Rows, 2)
		assert.Equal(t, "B", res.Rows[1].Branch)
		assert.Equal(t, 2, res.Rows[1].NumTerminals)
		assert.Equal(t, 0.2, res.Rows[1].ValueInZiG)
		assert.Equal(t, int64(1), res.Rows[1].VolumeInZiG)
		assert.Zero(t, res.Rows[1].ValueInUSD)
	})
}

func TestGroupTotals(t *testing.T) {
	ctx := context.Background()
	f := seededReports(t)

	res, err := f.reports.GroupTotals(ctx, report("G1", "2024-02-01", "2024-02-03"))
	require.NoError(t, err)
	totals := res.Totals
	assert.Equal(t, 100.3, totals.TotalValueZiG)
	assert.Equal(t, int64(4), totals.TotalVolumeZiG)
	assert.Equal(t, 50.0, totals.TotalValueUSD)
	assert.Equal(t, int64(1), totals.TotalVolumeUSD)
	assert.Equal(t, 1.0, totals.ActivityRatioZiG)
	assert.Equal(t, 1.0, totals.ActivityRatioUSD)

	t.Run("NoTerminalsOfClass", func(t *testing.T) {
		res, err := f.reports.GroupTotals(ctx, report("G2", "2024-03-01", "2024-03-01"))
		require.NoError(t, err)
		assert.Zero(t, res.Totals.ActivityRatioUSD)
		assert.Equal(t, 1.0, res.Totals.ActivityRatioZiG)
	})

	t.Run("UnknownGroup", func(t *testing.T) {
		_, err := f.reports.GroupTotals(ctx, report("G9", "2024-03-01", "2024-03-01"))
		assert.True(t, businessflow.IsGroupNotFound(err))
	})
}

func TestDashboardData(t *testing.T) {
	ctx := context.Background()
	f := seededReports(t)

	res, err := f.reports.DashboardData(ctx, "2024-02-01", "2024-02-01")
	require.NoError(t, err)
	require.Contains(t, res.Groups, "G1")
	require.Contains(t, res.Groups, "G2")
	assert.Equal(t, 100.0, res.Groups["G1"].TotalValueZiG)
	assert.Equal(t, 0.5, res.Groups["G1"].ActivityRatioZiG)
	assert.Equal(t, dto.GroupTotals{}, res.Groups["G2"])

	_, err = f.reports.DashboardData(ctx, "", "2024-02-01")
	assert.True(t, businessflow.IsDateRangeRequired(err))
}

func TestDashboardDataCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	store := testingutil.NewMemoryStore()
	f := newFlowsWith(t, store, store.Transactions(), services.NewRedisReportCache(rc, "test:", time.Minute))
	store.SeedClients(
		testingutil.NewClient("SBM001", "G1", "A"),
		testingutil.NewClient("FCM002", "G1", "A"),
	)
	store.SeedTransactions(tx("SBM001", "2024-02-01", 2, 100))

	res, err := f.reports.DashboardData(ctx, "2024-02-01", "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.Groups["G1"].TotalValueZiG)
	assert.True(t, mr.Exists("test:reports:0:dashboard:2024-02-01:2024-02-01"))

	// a direct store write bypasses invalidation, so the cached totals are served
	store.SeedTransactions(tx("FCM002", "2024-02-01", 1, 50))
	res, err = f.reports.DashboardData(ctx, "2024-02-01", "2024-02-01")
	require.NoError(t, err)
	assert.Zero(t, res.Groups["G1"].TotalValueUSD)

	// a flow mutation invalidates
	_, err = f.clients.CreateClient(ctx, &dto.ClientRequest{
		TerminalID: "FCQ003", PhysicalTID: "PFCQ003", Model: "Move5000",
		MerchantName: "Merchant FCQ003", City: "Harare", Group: "G2", Branch: "B",
	})
	require.NoError(t, err)

	res, err = f.reports.DashboardData(ctx, "2024-02-01", "2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.Groups["G1"].TotalValueUSD)
	assert.Contains(t, res.Groups, "G2")
}

func TestEmptyRangePolicies(t *testing.T) {
	ctx := context.Background()
	f := seededReports(t)
	empty := report("G1", "2023-01-01", "2023-01-31")

	_, err := f.reports.DailySummary(ctx, empty)
	require.Error(t, err)
	assert.True(t, businessflow.IsNoData(err))

	_, err = f.reports.ExportDailySummary(ctx, empty)
	assert.True(t, businessflow.IsNoData(err))

	totals, err := f.reports.GroupTotals(ctx, empty)
	require.NoError(t, err)
	assert.Equal(t, dto.GroupTotals{}, totals.Totals)
}

func TestValueVolumeMatrix(t *testing.T) {
	ctx := context.Background()
	f := seededReports(t)

	res, err := f.reports.ValueVolumeMatrix(ctx, report("G1", "2024-02-01", "2024-02-03"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-01", "2024-02-03"}, res.Dates)
	require.Len(t, res.Rows, 4)

	byTerminal := map[string]dto.MatrixRow{}
	for _, r := range res.Rows {
		byTerminal[r.TerminalID] = r
	}
	assert.Equal(t, []float64{100, 0.1}, byTerminal["SBM001"].Values)
	assert.Equal(t, []int64{2, 1}, byTerminal["SBM001"].Volumes)
	assert.Equal(t, []float64{0, 0.2}, byTerminal["ZPZ003"].Values)

	t.Run("InactiveTerminalsKeepAZeroRow", func(t *testing.T) {
		res, err := f.reports.ValueVolumeMatrix(ctx, report("G1", "2024-02-02", "2024-02-02"))
		require.NoError(t, err)
		assert.Empty(t, res.Dates)
		assert.Len(t, res.Rows, 4)
		for _, r := range res.Rows {
			assert.Empty(t, r.Values)
			assert.Empty(t, r.Volumes)
		}
	})

	t.Run("Export", func(t *testing.T) {
		file, err := f.reports.ExportValueVolumeMatrix(ctx, report("G1", "2024-02-01", "2024-02-01"))
		require.NoError(t, err)
		assert.Equal(t, "transactions_G1.xlsx", file.Filename)

		sheets, err := testingutil.ReadWorkbook(file.Content)
		require.NoError(t, err)
		require.Contains(t, sheets, "Value")
		require.Contains(t, sheets, "Volume")
		assert.Equal(t, []string{"Terminal ID", "2024-02-01"}, sheets["Value"][0])
		assert.Len(t, sheets["Volume"], 5)
		for _, row := range sheets["Value"][1:] {
			if row[0] == "FCM002" {
				assert.Equal(t, "50", row[1])
			}
			if row[0] == "ZPZ003" {
				assert.Equal(t, "0", row[1])
			}
		}
	})
}

func TestDailySummary(t *testing.T) {
	ctx := context.Background()
	f := seededReports(t)

	res, err := f.reports.DailySummary(ctx, report("G1", "2024-02-01", "2024-02-03"))
	require.NoError(t, err)
	assert.Equal(t, []dto.DailySummaryRow{
		{Date: "2024-02-01", ValueInZiG: 100, VolumeInZiG: 2, ValueInUSD: 50, VolumeInUSD: 1},
		{Date: "2024-02-03", ValueInZiG: 0.3, VolumeInZiG: 2},
	}, res.Rows)

	file, err := f.reports.ExportDailySummary(ctx, report("G1", "2024-02-01", "2024-02-03"))
	require.NoError(t, err)
	assert.Equal(t, "Summary_G1.xlsx", file.Filename)

	sheets, err := testingutil.ReadWorkbook(file.Content)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "Value in ZiG", "Volume in ZiG", "Value in USD", "Volume in USD"}, sheets["summary"][0])
	assert.Len(t, sheets["summary"], 3)
}

func TestCumulativeByTerminal(t *testing.T) {
	ctx := context.Background()
	f := seededReports(t)

	res, err := f.reports.CumulativeByTerminal(ctx, report("G1", "2024-02-01", "2024-02-03"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 4)

	byTerminal := map[string]dto.CumulativeTerminalRow{}
	for _, r := range res.Rows {
		byTerminal[r.TerminalID] = r
	}
	assert.Equal(t, 100.1, byTerminal["SBM001"].TotalValue)
	assert.Equal(t, int64(3), byTerminal["SBM001"].TotalVolume)
	assert.Equal(t, "Merchant SBM001", byTerminal["SBM001"].MerchantName)
	assert.Equal(t, 999.0, byTerminal["XYZ004"].TotalValue)

	file, err := f.reports.ExportCumulativeByTerminal(ctx, report("G1", "2024-02-01", "2024-02-03"))
	require.NoError(t, err)
	assert.Equal(t, "Cumulative_G1.xlsx", file.Filename)

	branches, err := f.reports.ExportCumulativeByBranch(ctx, report("G1", "2024-02-01", "2024-02-03"))
	require.NoError(t, err)
	assert.Equal(t, "Cumulative_by_branch_G1.xlsx", branches.Filename)
}

func TestReportValidation(t *testing.T) {
	ctx := context.Background()
	f := seededReports(t)

	_, err := f.reports.CumulativeByTerminal(ctx, report("G1", "2024-2-1", "2024-02-03"))
	assert.True(t, businessflow.IsInvalidDateFormat(err))
	assert.True(t, businessflow.IsBadRequest(err))

	_, err = f.reports.CumulativeByTerminal(ctx, report("", "2024-02-01", "2024-02-03"))
	assert.True(t, businessflow.IsValidation(err))
}
