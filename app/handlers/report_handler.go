package handlers

import (
	"context"

	"github.com/Mashyrano/Pos-performance-Tracker/app/dto"
	businessflow "github.com/Mashyrano/Pos-performance-Tracker/business_flow"
	"github.com/Mashyrano/Pos-performance-Tracker/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

const formatJSON = "json"

type ReportHandlerInterface interface {
	DashboardData(c fiber.Ctx) error
	GroupDashboardData(c fiber.Ctx) error
	ValueVolumeMatrix(c fiber.Ctx) error
	DailySummary(c fiber.Ctx) error
	CumulativeByTerminal(c fiber.Ctx) error
	CumulativeByBranch(c fiber.Ctx) error
}

type ReportHandler struct {
	baseHandler
	flow businessflow.ReportFlow
}

func NewReportHandler(flow businessflow.ReportFlow, logger logrus.FieldLogger) *ReportHandler {
	return &ReportHandler{
		baseHandler: newBaseHandler(logger.WithField("module", "report_handler")),
		flow:        flow,
	}
}

func reportRequest(c fiber.Ctx) *dto.ReportRequest {
	return &dto.ReportRequest{
		Group:     pathParam(c, "group"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
}

// respondReport sends the report as JSON when format=json, otherwise as a workbook attachment
func (h *ReportHandler) respondReport(
	c fiber.Ctx,
	endpoint string,
	asJSON func(ctx context.Context, req *dto.ReportRequest) (any, string, error),
	asFile func(ctx context.Context, req *dto.ReportRequest) (*dto.ExportFile, error),
) error {
	req := reportRequest(c)

	ctx, cancel := h.createRequestContextWithTimeout(c, endpoint, utils.UploadRequestTimeout)
	defer cancel()

	if c.Query("format") == formatJSON {
		data, message, err := asJSON(ctx, req)
		if err != nil {
			return h.FlowErrorResponse(c, err, "Failed to build report", "REPORT_FAILED")
		}
		return h.SuccessResponse(c, fiber.StatusOK, message, data)
	}

	file, err := asFile(ctx, req)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to build report", "REPORT_FAILED")
	}
	return sendAttachment(c, file)
}

// DashboardData returns totals by currency class for every group
// @Summary Dashboard Data
// @Tags Reports
// @Produce json
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Success 200 {object} dto.APIResponse{data=dto.DashboardDataResponse}
// @Failure 400 {object} dto.APIResponse
// @Router /dashboard/data [get]
func (h *ReportHandler) DashboardData(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/dashboard/data")
	defer cancel()

	res, err := h.flow.DashboardData(ctx, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to build dashboard data", "DASHBOARD_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// GroupDashboardData returns totals by currency class for one group
// @Summary Group Dashboard Data
// @Tags Reports
// @Produce json
// @Param group path string true "Group name"
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Success 200 {object} dto.APIResponse{data=dto.GroupTotalsResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /dashboard/data/{group} [get]
func (h *ReportHandler) GroupDashboardData(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/dashboard/data/:group")
	defer cancel()

	res, err := h.flow.GroupTotals(ctx, reportRequest(c))
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to build dashboard data", "DASHBOARD_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// ValueVolumeMatrix exports per-terminal daily values and volumes
// @Summary Value/Volume Report
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param group path string true "Group name"
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Param format query string false "json to receive rows instead of a workbook"
// @Success 200 {file} file
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /excel/getVolume_Value/{group} [get]
func (h *ReportHandler) ValueVolumeMatrix(c fiber.Ctx) error {
	return h.respondReport(c, "/excel/getVolume_Value/:group",
		func(ctx context.Context, req *dto.ReportRequest) (any, string, error) {
			res, err := h.flow.ValueVolumeMatrix(ctx, req)
			if err != nil {
				return nil, "", err
			}
			return res, res.Message, nil
		},
		h.flow.ExportValueVolumeMatrix,
	)
}

// DailySummary exports per-day totals split by currency class
// @Summary Daily Summary Report
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param group path string true "Group name"
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Param format query string false "json to receive rows instead of a workbook"
// @Success 200 {file} file
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /excel/getDailySummary/{group} [get]
func (h *ReportHandler) DailySummary(c fiber.Ctx) error {
	return h.respondReport(c, "/excel/getDailySummary/:group",
		func(ctx context.Context, req *dto.ReportRequest) (any, string, error) {
			res, err := h.flow.DailySummary(ctx, req)
			if err != nil {
				return nil, "", err
			}
			return res, res.Message, nil
		},
		h.flow.ExportDailySummary,
	)
}

// CumulativeByTerminal exports per-terminal totals over the range
// @Summary Cumulative Report
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param group path string true "Group name"
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Param format query string false "json to receive rows instead of a workbook"
// @Success 200 {file} file
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /excel/cumulative/{group} [get]
func (h *ReportHandler) CumulativeByTerminal(c fiber.Ctx) error {
	return h.respondReport(c, "/excel/cumulative/:group",
		func(ctx context.Context, req *dto.ReportRequest) (any, string, error) {
			res, err := h.flow.CumulativeByTerminal(ctx, req)
			if err != nil {
				return nil, "", err
			}
			return res, res.Message, nil
		},
		h.flow.ExportCumulativeByTerminal,
	)
}

// CumulativeByBranch exports per-branch totals split by currency class
// @Summary Cumulative By Branch Report
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param group path string true "Group name"
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Param format query string false "json to receive rows instead of a workbook"
// @Success 200 {file} file
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /excel/cumulative_by_branch/{group} [get]
func (h *ReportHandler) CumulativeByBranch(c fiber.Ctx) error {
	return h.respondReport(c, "/excel/cumulative_by_branch/:group",
		func(ctx context.Context, req *dto.ReportRequest) (any, string, error) {
			res, err := h.flow.CumulativeByBranch(ctx, req)
			if err != nil {
				return nil, "", err
			}
			return res, res.Message, nil
		},
		h.flow.ExportCumulativeByBranch,
	)
}
