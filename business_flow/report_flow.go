package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/Mashyrano/Pos-performance-Tracker/app/dto"
	"github.com/Mashyrano/Pos-performance-Tracker/app/services"
	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"github.com/Mashyrano/Pos-performance-Tracker/repository"
	"github.com/Mashyrano/Pos-performance-Tracker/utils"
	"github.com/sirupsen/logrus"
)

// Report kinds, used as metric labels and cache keys
const (
	reportDashboard     = "dashboard"
	reportGroupTotals   = "group_totals"
	reportMatrix        = "value_volume"
	reportDailySummary  = "daily_summary"
	reportCumulative    = "cumulative"
	reportCumulativeBrn = "cumulative_by_branch"
)

// ReportFlow aggregates a group's transactions over a date range
type ReportFlow interface {
	DashboardData(ctx context.Context, startDate, endDate string) (*dto.DashboardDataResponse, error)
	GroupTotals(ctx context.Context, req *dto.ReportRequest) (*dto.GroupTotalsResponse, error)
	ValueVolumeMatrix(ctx context.Context, req *dto.ReportRequest) (*dto.ValueVolumeMatrixResponse, error)
	DailySummary(ctx context.Context, req *dto.ReportRequest) (*dto.DailySummaryResponse, error)
	CumulativeByTerminal(ctx context.Context, req *dto.ReportRequest) (*dto.CumulativeByTerminalResponse, error)
	CumulativeByBranch(ctx context.Context, req *dto.ReportRequest) (*dto.CumulativeByBranchResponse, error)

	ExportValueVolumeMatrix(ctx context.Context, req *dto.ReportRequest) (*dto.ExportFile, error)
	ExportDailySummary(ctx context.Context, req *dto.ReportRequest) (*dto.ExportFile, error)
	ExportCumulativeByTerminal(ctx context.Context, req *dto.ReportRequest) (*dto.ExportFile, error)
	ExportCumulativeByBranch(ctx context.Context, req *dto.ReportRequest) (*dto.ExportFile, error)
}

// ReportFlowImpl implements ReportFlow
type ReportFlowImpl struct {
	clientRepo      repository.ClientRepository
	transactionRepo repository.TransactionRepository
	cache           services.ReportCache
	tempDir         string
	logger          logrus.FieldLogger
}

func NewReportFlow(
	clientRepo repository.ClientRepository,
	transactionRepo repository.TransactionRepository,
	cache services.ReportCache,
	tempDir string,
	logger logrus.FieldLogger,
) ReportFlow {
	return &ReportFlowImpl{
		clientRepo:      clientRepo,
		transactionRepo: transactionRepo,
		cache:           cache,
		tempDir:         tempDir,
		logger:          logger.WithField("module", "report_flow"),
	}
}

// groupData is everything one report needs about one group
type groupData struct {
	clients      []*models.Client
	transactions []*models.Transaction
}

// loadGroup resolves the group's clients and their in-range transactions
func (f *ReportFlowImpl) loadGroup(ctx context.Context, group string, dr DateRange) (*groupData, error) {
	clients, err := f.clientRepo.ByGroup(ctx, group)
	if err != nil {
		return nil, NewBusinessError("LOAD_GROUP_FAILED", "Failed to load group clients", err)
	}
	if len(clients) == 0 {
		return nil, NewBusinessErrorf("GROUP_NOT_FOUND", "No clients found for group %s", ErrGroupNotFound, group)
	}

	txs, err := f.transactionRepo.ByFilter(ctx, models.TransactionFilter{
		Group:    &group,
		DateFrom: &dr.Start,
		DateTo:   &dr.End,
	}, "", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LOAD_GROUP_FAILED", "Failed to load group transactions", err)
	}

	return &groupData{clients: clients, transactions: txs}, nil
}

func (f *ReportFlowImpl) prepare(ctx context.Context, req *dto.ReportRequest) (*groupData, error) {
	if req == nil || req.Group == "" {
		return nil, NewBusinessError("VALIDATION_ERROR", "Group is required", ErrValidation)
	}
	dr, err := ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	return f.loadGroup(ctx, req.Group, dr)
}

func observeReport(kind string, start time.Time) {
	reportDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// DashboardData computes totals by currency class for every group. Groups
// without transactions report zeros.
func (f *ReportFlowImpl) DashboardData(ctx context.Context, startDate, endDate string) (*dto.DashboardDataResponse, error) {
	defer observeReport(reportDashboard, time.Now())

	dr, err := ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s:%s:%s", reportDashboard, utils.FormatDate(dr.Start), utils.FormatDate(dr.LastDay()))
	var cached map[string]dto.GroupTotals
	gen, hit, cacheErr := f.cache.Get(ctx, cacheKey, &cached)
	if cacheErr != nil {
		flowLogger(ctx, f.logger).WithError(cacheErr).Warn("report cache read failed")
	} else if hit {
		return &dto.DashboardDataResponse{
			Message: "Dashboard data retrieved successfully",
			Groups:  cached,
		}, nil
	}

	groups, err := f.clientRepo.ListGroups(ctx)
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_DATA_FAILED", "Failed to fetch dashboard data", err)
	}

	data := make(map[string]dto.GroupTotals, len(groups))
	for _, group := range groups {
		gd, err := f.loadGroup(ctx, group, dr)
		if err != nil {
			return nil, err
		}
		data[group] = computeGroupTotals(gd.clients, gd.transactions)
	}

	if cacheErr == nil {
		if err := f.cache.Set(ctx, gen, cacheKey, data); err != nil {
			flowLogger(ctx, f.logger).WithError(err).Warn("report cache write failed")
		}
	}

	return &dto.DashboardDataResponse{
		Message: "Dashboard data retrieved successfully",
		Groups:  data,
	}, nil
}

func (f *ReportFlowImpl) GroupTotals(ctx context.Context, req *dto.ReportRequest) (*dto.GroupTotalsResponse, error) {
	defer observeReport(reportGroupTotals, time.Now())

	gd, err := f.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return &dto.GroupTotalsResponse{
		Message: "Group totals retrieved successfully",
		Group:   req.Group,
		Totals:  computeGroupTotals(gd.clients, gd.transactions),
	}, nil
}

func (f *ReportFlowImpl) ValueVolumeMatrix(ctx context.Context, req *dto.ReportRequest) (*dto.ValueVolumeMatrixResponse, error) {
	defer observeReport(reportMatrix, time.Now())

	gd, err := f.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	dates, rows := buildValueVolumeMatrix(gd.clients, gd.transactions)
	return &dto.ValueVolumeMatrixResponse{
		Message: "Value and volume matrix built successfully",
		Group:   req.Group,
		Dates:   dates,
		Rows:    rows,
	}, nil
}

// DailySummary fails with ErrNoData when the range holds no transactions
func (f *ReportFlowImpl) DailySummary(ctx context.Context, req *dto.ReportRequest) (*dto.DailySummaryResponse, error) {
	defer observeReport(reportDailySummary, time.Now())

	gd, err := f.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(gd.transactions) == 0 {
		return nil, NewBusinessErrorf("NO_DATA", "No transactions found for group %s", ErrNoData, req.Group)
	}
	return &dto.DailySummaryResponse{
		Message: "Daily summary built successfully",
		Group:   req.Group,
		Rows:    buildDailySummary(gd.transactions),
	}, nil
}

func (f *ReportFlowImpl) CumulativeByTerminal(ctx context.Context, req *dto.ReportRequest) (*dto.CumulativeByTerminalResponse, error) {
	defer observeReport(reportCumulative, time.Now())

	gd, err := f.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return &dto.CumulativeByTerminalResponse{
		Message: "Cumulative totals built successfully",
		Group:   req.Group,
		Rows:    buildCumulativeByTerminal(gd.clients, gd.transactions),
	}, nil
}

func (f *ReportFlowImpl) CumulativeByBranch(ctx context.Context, req *dto.ReportRequest) (*dto.CumulativeByBranchResponse, error) {
	defer observeReport(reportCumulativeBrn, time.Now())

	gd, err := f.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return &dto.CumulativeByBranchResponse{
		Message: "Cumulative totals by branch built successfully",
		Group:   req.Group,
		Rows:    buildCumulativeByBranch(gd.clients, gd.transactions),
	}, nil
}

// ExportValueVolumeMatrix renders the matrix as "Value" and "Volume" sheets
func (f *ReportFlowImpl) ExportValueVolumeMatrix(ctx context.Context, req *dto.ReportRequest) (*dto.ExportFile, error) {
	res, err := f.ValueVolumeMatrix(ctx, req)
	if err != nil {
		return nil, err
	}

	header := append([]string{"Terminal ID"}, res.Dates...)
	valueRows := make([][]any, 0, len(res.Rows))
	volumeRows := make([][]any, 0, len(res.Rows))
	for _, r := range res.Rows {
		values := []any{r.TerminalID}
		volumes := []any{r.TerminalID}
		for i := range res.Dates {
			values = append(values, r.Values[i])
			volumes = append(volumes, r.Volumes[i])
		}
		valueRows = append(valueRows, values)
		volumeRows = append(volumeRows, volumes)
	}

	return f.export(ctx, "transactions", req.Group, []sheetTable{
		{name: "Value", header: header, rows: valueRows},
		{name: "Volume", header: header, rows: volumeRows},
	})
}

func (f *ReportFlowImpl) ExportDailySummary(ctx context.Context, req *dto.ReportRequest) (*dto.ExportFile, error) {
	res, err := f.DailySummary(ctx, req)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(res.Rows))
	for _, r := range res.Rows {
		rows = append(rows, []any{r.Date, r.ValueInZiG, r.VolumeInZiG, r.ValueInUSD, r.VolumeInUSD})
	}
	return f.export(ctx, "Summary", req.Group, []sheetTable{{
		name:   "summary",
		header: []string{"date", "Value in ZiG", "Volume in ZiG", "Value in USD", "Volume in USD"},
		rows:   rows,
	}})
}

func (f *ReportFlowImpl) ExportCumulativeByTerminal(ctx context.Context, req *dto.ReportRequest) (*dto.ExportFile, error) {
	res, err := f.CumulativeByTerminal(ctx, req)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(res.Rows))
	for _, r := range res.Rows {
		rows = append(rows, []any{r.MerchantName, r.TerminalID, r.TotalValue, r.TotalVolume})
	}
	return f.export(ctx, "Cumulative", req.Group, []sheetTable{{
		name:   "summary",
		header: []string{"Merchant_name", "TerminalID", "Total Value", "Total Volume"},
		rows:   rows,
	}})
}

func (f *ReportFlowImpl) ExportCumulativeByBranch(ctx context.Context, req *dto.ReportRequest) (*dto.ExportFile, error) {
	res, err := f.CumulativeByBranch(ctx, req)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(res.Rows))
	for _, r := range res.Rows {
		rows = append(rows, []any{r.NumTerminals, r.Branch, r.ValueInZiG, r.VolumeInZiG, r.ValueInUSD, r.VolumeInUSD})
	}
	return f.export(ctx, "Cumulative_by_branch", req.Group, []sheetTable{{
		name:   "summary",
		header: []string{"num of terminal IDs", "Branch", "Value in ZiG", "Volume in ZiG", "Value in USD", "Volume in USD"},
		rows:   rows,
	}})
}

func (f *ReportFlowImpl) export(ctx context.Context, kind, group string, sheets []sheetTable) (*dto.ExportFile, error) {
	content, err := renderWorkbook(f.tempDir, kind, sheets)
	if err != nil {
		flowLogger(ctx, f.logger).WithError(err).WithFields(logrus.Fields{"report": kind, "group": group}).Error("export failed")
		return nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return &dto.ExportFile{
		Filename: fmt.Sprintf("%s_%s.xlsx", kind, group),
		Content:  content,
	}, nil
}
