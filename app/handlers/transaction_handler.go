package handlers

import (
	"github.com/Mashyrano/Pos-performance-Tracker/app/dto"
	businessflow "github.com/Mashyrano/Pos-performance-Tracker/business_flow"
	"github.com/Mashyrano/Pos-performance-Tracker/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

type TransactionHandlerInterface interface {
	UploadTransactions(c fiber.Ctx) error
	ListTransactions(c fiber.Ctx) error
	ListByTerminal(c fiber.Ctx) error
	ListByGroup(c fiber.Ctx) error
	GroupSummary(c fiber.Ctx) error
	DeleteByGroup(c fiber.Ctx) error
	DeleteByDateRange(c fiber.Ctx) error
	DeleteAll(c fiber.Ctx) error
}

type TransactionHandler struct {
	baseHandler
	flow businessflow.TransactionFlow
}

func NewTransactionHandler(flow businessflow.TransactionFlow, logger logrus.FieldLogger) *TransactionHandler {
	return &TransactionHandler{
		baseHandler: newBaseHandler(logger.WithField("module", "transaction_handler")),
		flow:        flow,
	}
}

// UploadTransactions ingests every sheet of a daily feed workbook
// @Summary Upload Transactions
// @Tags Transactions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Feed workbook (.xlsx or .xlsm)"
// @Success 201 {object} dto.APIResponse{data=dto.IngestTransactionsResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /transactions/upload [post]
func (h *TransactionHandler) UploadTransactions(c fiber.Ctx) error {
	fh, err := uploadedFile(c, ".xlsx", ".xlsm")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid file format or empty file", "INVALID_FILE", err.Error())
	}
	file, err := fh.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unable to read uploaded file", "INVALID_FILE", err.Error())
	}
	defer file.Close()

	ctx, cancel := h.createRequestContextWithTimeout(c, "/transactions/upload", utils.UploadRequestTimeout)
	defer cancel()

	res, err := h.flow.IngestTransactions(ctx, file)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to add transactions", "INGEST_TRANSACTIONS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, res.Message, res)
}

// ListTransactions returns every stored transaction
// @Summary List Transactions
// @Tags Transactions
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListTransactionsResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /transactions [get]
func (h *TransactionHandler) ListTransactions(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/transactions")
	defer cancel()

	res, err := h.flow.ListTransactions(ctx)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to list transactions", "LIST_TRANSACTIONS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// ListByTerminal returns the transactions of one terminal
// @Summary List Transactions Of Terminal
// @Tags Transactions
// @Produce json
// @Param terminal_id path string true "Terminal ID"
// @Success 200 {object} dto.APIResponse{data=dto.ListTransactionsResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /transactions/{terminal_id} [get]
func (h *TransactionHandler) ListByTerminal(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/transactions/:terminal_id")
	defer cancel()

	res, err := h.flow.ListByTerminal(ctx, pathParam(c, "terminal_id"))
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to list transactions", "LIST_TRANSACTIONS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// ListByGroup returns the transactions of every terminal in a group
// @Summary List Transactions Of Group
// @Tags Transactions
// @Produce json
// @Param group path string true "Group name"
// @Success 200 {object} dto.APIResponse{data=dto.ListTransactionsResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /transactions/group/{group} [get]
func (h *TransactionHandler) ListByGroup(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/transactions/group/:group")
	defer cancel()

	res, err := h.flow.ListByGroup(ctx, pathParam(c, "group"))
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to list transactions", "LIST_TRANSACTIONS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// GroupSummary returns total volume and value of a group over a date range
// @Summary Group Transaction Summary
// @Tags Transactions
// @Produce json
// @Param group path string true "Group name"
// @Param start_date query string true "YYYY-MM-DD"
// @Param end_date query string true "YYYY-MM-DD"
// @Success 200 {object} dto.APIResponse{data=dto.GroupSummaryResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /transactions/group_summary/{group} [get]
func (h *TransactionHandler) GroupSummary(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/transactions/group_summary/:group")
	defer cancel()

	res, err := h.flow.GroupSummary(ctx, pathParam(c, "group"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to summarise transactions", "GROUP_SUMMARY_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// DeleteByGroup removes the transactions of every terminal in a group
// @Summary Delete Transactions Of Group
// @Tags Transactions
// @Produce json
// @Param group path string true "Group name"
// @Success 200 {object} dto.APIResponse{data=dto.DeleteResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /transactions/group/{group} [delete]
func (h *TransactionHandler) DeleteByGroup(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/transactions/group/:group")
	defer cancel()

	res, err := h.flow.DeleteByGroup(ctx, pathParam(c, "group"))
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to delete transactions", "DELETE_TRANSACTIONS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// DeleteByDateRange removes every transaction dated inside the range
// @Summary Delete Transactions In Date Range
// @Tags Transactions
// @Accept json
// @Produce json
// @Param request body dto.DeleteByDateRangeRequest true "Date range"
// @Success 200 {object} dto.APIResponse{data=dto.DeleteResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /transactions/delete [post]
func (h *TransactionHandler) DeleteByDateRange(c fiber.Ctx) error {
	var req dto.DeleteByDateRangeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ValidationErrorResponse(c, err)
	}

	ctx, cancel := h.createRequestContext(c, "/transactions/delete")
	defer cancel()

	res, err := h.flow.DeleteByDateRange(ctx, &req)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to delete transactions", "DELETE_TRANSACTIONS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// DeleteAll removes every transaction
// @Summary Delete All Transactions
// @Tags Transactions
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.DeleteResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /transactions/delete/all [delete]
func (h *TransactionHandler) DeleteAll(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/transactions/delete/all")
	defer cancel()

	res, err := h.flow.DeleteAll(ctx)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to delete transactions", "DELETE_TRANSACTIONS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}
