package handlers

import (
	"strconv"

	"github.com/Mashyrano/Pos-performance-Tracker/app/dto"
	businessflow "github.com/Mashyrano/Pos-performance-Tracker/business_flow"
	"github.com/Mashyrano/Pos-performance-Tracker/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

type ClientHandlerInterface interface {
	CreateClient(c fiber.Ctx) error
	GetClient(c fiber.Ctx) error
	ListClients(c fiber.Ctx) error
	ListClientsByGroup(c fiber.Ctx) error
	ListGroups(c fiber.Ctx) error
	UpdateClient(c fiber.Ctx) error
	DeleteClient(c fiber.Ctx) error
	UploadClients(c fiber.Ctx) error
	DeleteGroup(c fiber.Ctx) error
	DeleteAll(c fiber.Ctx) error
}

type ClientHandler struct {
	baseHandler
	flow businessflow.ClientFlow
}

func NewClientHandler(flow businessflow.ClientFlow, logger logrus.FieldLogger) *ClientHandler {
	return &ClientHandler{
		baseHandler: newBaseHandler(logger.WithField("module", "client_handler")),
		flow:        flow,
	}
}

func (h *ClientHandler) clientID(c fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *ClientHandler) bindClientRequest(c fiber.Ctx) (*dto.ClientRequest, error) {
	var req dto.ClientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return nil, h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return nil, h.ValidationErrorResponse(c, err)
	}
	return &req, nil
}

// CreateClient registers a POS terminal
// @Summary Create Client
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body dto.ClientRequest true "Client payload"
// @Success 201 {object} dto.APIResponse{data=dto.ClientResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /clients [post]
func (h *ClientHandler) CreateClient(c fiber.Ctx) error {
	req, respErr := h.bindClientRequest(c)
	if req == nil {
		return respErr
	}

	ctx, cancel := h.createRequestContext(c, "/clients")
	defer cancel()

	res, err := h.flow.CreateClient(ctx, req)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to create client", "CREATE_CLIENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, res.Message, res)
}

// GetClient returns one client
// @Summary Get Client
// @Tags Clients
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} dto.APIResponse{data=dto.ClientResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /clients/{id} [get]
func (h *ClientHandler) GetClient(c fiber.Ctx) error {
	id, ok := h.clientID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "VALIDATION_ERROR", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/clients/:id")
	defer cancel()

	res, err := h.flow.GetClient(ctx, id)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to get client", "GET_CLIENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// ListClients returns every client
// @Summary List Clients
// @Tags Clients
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListClientsResponse}
// @Router /clients [get]
func (h *ClientHandler) ListClients(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/clients")
	defer cancel()

	res, err := h.flow.ListClients(ctx)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to list clients", "LIST_CLIENTS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// ListClientsByGroup returns the clients of one group
// @Summary List Clients Of Group
// @Tags Clients
// @Produce json
// @Param group path string true "Group name"
// @Success 200 {object} dto.APIResponse{data=dto.ListClientsResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /clients/group/{group} [get]
func (h *ClientHandler) ListClientsByGroup(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/clients/group/:group")
	defer cancel()

	res, err := h.flow.ListClientsByGroup(ctx, pathParam(c, "group"))
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to list clients", "LIST_CLIENTS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// ListGroups returns the distinct group names
// @Summary List Groups
// @Tags Clients
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListGroupsResponse}
// @Router /clients/groups [get]
func (h *ClientHandler) ListGroups(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/clients/groups")
	defer cancel()

	res, err := h.flow.ListGroups(ctx)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to list groups", "LIST_GROUPS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// UpdateClient replaces every field of a client
// @Summary Update Client
// @Tags Clients
// @Accept json
// @Produce json
// @Param id path int true "Client ID"
// @Param request body dto.ClientRequest true "Client payload"
// @Success 200 {object} dto.APIResponse{data=dto.ClientResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /clients/{id} [put]
func (h *ClientHandler) UpdateClient(c fiber.Ctx) error {
	id, ok := h.clientID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "VALIDATION_ERROR", nil)
	}
	req, respErr := h.bindClientRequest(c)
	if req == nil {
		return respErr
	}

	ctx, cancel := h.createRequestContext(c, "/clients/:id")
	defer cancel()

	res, err := h.flow.UpdateClient(ctx, id, req)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to update client", "UPDATE_CLIENT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// DeleteClient removes one client without touching its transactions
// @Summary Delete Client
// @Tags Clients
// @Param id path int true "Client ID"
// @Success 204
// @Failure 404 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c fiber.Ctx) error {
	id, ok := h.clientID(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "VALIDATION_ERROR", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/clients/:id")
	defer cancel()

	if err := h.flow.DeleteClient(ctx, id); err != nil {
		return h.FlowErrorResponse(c, err, "Failed to delete client", "DELETE_CLIENT_FAILED")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadClients imports clients from an .xlsx workbook
// @Summary Upload Clients
// @Tags Clients
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Client workbook (.xlsx)"
// @Success 201 {object} dto.APIResponse{data=dto.ImportClientsResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /clients/upload [post]
func (h *ClientHandler) UploadClients(c fiber.Ctx) error {
	fh, err := uploadedFile(c, ".xlsx")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid file format or empty file", "INVALID_FILE", err.Error())
	}
	file, err := fh.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Unable to read uploaded file", "INVALID_FILE", err.Error())
	}
	defer file.Close()

	ctx, cancel := h.createRequestContextWithTimeout(c, "/clients/upload", utils.UploadRequestTimeout)
	defer cancel()

	res, err := h.flow.ImportClients(ctx, file)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to add clients", "IMPORT_CLIENTS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, res.Message, res)
}

// DeleteGroup removes a group's transactions and clients
// @Summary Delete Group
// @Tags Clients
// @Produce json
// @Param group path string true "Group name"
// @Success 200 {object} dto.APIResponse{data=dto.DeleteGroupResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /clients/group/{group} [delete]
func (h *ClientHandler) DeleteGroup(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/clients/group/:group")
	defer cancel()

	res, err := h.flow.DeleteGroup(ctx, pathParam(c, "group"))
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to delete group", "DELETE_GROUP_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// DeleteAll removes every transaction and client
// @Summary Delete All Clients
// @Tags Clients
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.DeleteAllClientsResponse}
// @Failure 404 {object} dto.APIResponse
// @Router /clients/delete/all [delete]
func (h *ClientHandler) DeleteAll(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/clients/delete/all")
	defer cancel()

	res, err := h.flow.DeleteAll(ctx)
	if err != nil {
		return h.FlowErrorResponse(c, err, "Failed to delete clients", "DELETE_ALL_CLIENTS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}
