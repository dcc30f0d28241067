package businessflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Mashyrano/Pos-performance-Tracker/app/dto"
	"github.com/Mashyrano/Pos-performance-Tracker/app/services"
	"github.com/Mashyrano/Pos-performance-Tracker/models"
	"github.com/Mashyrano/Pos-performance-Tracker/repository"
	"github.com/Mashyrano/Pos-performance-Tracker/utils"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Column names of the client import sheet
const (
	colTerminalID   = "Terminal Id"
	colPhysicalTID  = "Physical TId"
	colModel        = "Model"
	colMerchantName = "Merchant Name"
	colCity         = "City"
	colGroup        = "Group"
	colBranch       = "Branch"
)

var clientImportColumns = []string{colTerminalID, colPhysicalTID, colModel, colMerchantName, colCity, colGroup, colBranch}

// ClientFlow handles the client registry
type ClientFlow interface {
	CreateClient(ctx context.Context, req *dto.ClientRequest) (*dto.ClientResponse, error)
	GetClient(ctx context.Context, id uint) (*dto.ClientResponse, error)
	ListClients(ctx context.Context) (*dto.ListClientsResponse, error)
	ListClientsByGroup(ctx context.Context, group string) (*dto.ListClientsResponse, error)
	ListGroups(ctx context.Context) (*dto.ListGroupsResponse, error)
	UpdateClient(ctx context.Context, id uint, req *dto.ClientRequest) (*dto.ClientResponse, error)
	DeleteClient(ctx context.Context, id uint) error
	ImportClients(ctx context.Context, r io.Reader) (*dto.ImportClientsResponse, error)
	DeleteGroup(ctx context.Context, group string) (*dto.DeleteGroupResponse, error)
	DeleteAll(ctx context.Context) (*dto.DeleteAllClientsResponse, error)
}

// ClientFlowImpl implements ClientFlow
type ClientFlowImpl struct {
	clientRepo      repository.ClientRepository
	transactionFlow TransactionFlow
	transactor      repository.Transactor
	cache           services.ReportCache
	validator       *validator.Validate
	logger          logrus.FieldLogger
}

func NewClientFlow(
	clientRepo repository.ClientRepository,
	transactionFlow TransactionFlow,
	transactor repository.Transactor,
	cache services.ReportCache,
	logger logrus.FieldLogger,
) ClientFlow {
	return &ClientFlowImpl{
		clientRepo:      clientRepo,
		transactionFlow: transactionFlow,
		transactor:      transactor,
		cache:           cache,
		validator:       validator.New(),
		logger:          logger.WithField("module", "client_flow"),
	}
}

// CreateClient registers one terminal; its terminal ID must be new
func (f *ClientFlowImpl) CreateClient(ctx context.Context, req *dto.ClientRequest) (*dto.ClientResponse, error) {
	if req == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Request body is required", ErrValidation)
	}

	exists, err := f.clientRepo.Exists(ctx, models.ClientFilter{TerminalID: utils.ToPtr(req.TerminalID)})
	if err != nil {
		return nil, NewBusinessError("CREATE_CLIENT_FAILED", "Failed to check terminal ID", err)
	}
	if exists {
		return nil, NewBusinessErrorf("CLIENT_ALREADY_EXISTS", "Client with terminal ID '%s' already exists", ErrClientAlreadyExists, req.TerminalID)
	}

	client := clientFromRequest(req)
	if err := f.clientRepo.Save(ctx, client); err != nil {
		if isDuplicateKey(err) {
			return nil, NewBusinessErrorf("CLIENT_ALREADY_EXISTS", "Client with terminal ID '%s' already exists", ErrClientAlreadyExists, req.TerminalID)
		}
		return nil, NewBusinessError("CREATE_CLIENT_FAILED", "Failed to create client", err)
	}
	invalidateReports(ctx, f.cache, f.logger)

	return &dto.ClientResponse{
		Message: "Client added successfully",
		Client:  ToClientDTO(client),
	}, nil
}

func (f *ClientFlowImpl) GetClient(ctx context.Context, id uint) (*dto.ClientResponse, error) {
	client, err := f.clientRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("GET_CLIENT_FAILED", "Failed to get client", err)
	}
	if client == nil {
		return nil, NewBusinessErrorf("CLIENT_NOT_FOUND", "Client %d not found", ErrClientNotFound, id)
	}
	return &dto.ClientResponse{
		Message: "Client retrieved successfully",
		Client:  ToClientDTO(client),
	}, nil
}

func (f *ClientFlowImpl) ListClients(ctx context.Context) (*dto.ListClientsResponse, error) {
	clients, err := f.clientRepo.ByFilter(ctx, models.ClientFilter{}, "", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_CLIENTS_FAILED", "Failed to list clients", err)
	}
	return &dto.ListClientsResponse{
		Message: "Clients retrieved successfully",
		Items:   ToClientDTOs(clients),
	}, nil
}

func (f *ClientFlowImpl) ListClientsByGroup(ctx context.Context, group string) (*dto.ListClientsResponse, error) {
	clients, err := f.clientRepo.ByGroup(ctx, group)
	if err != nil {
		return nil, NewBusinessError("LIST_CLIENTS_FAILED", "Failed to list clients", err)
	}
	if len(clients) == 0 {
		return nil, NewBusinessErrorf("GROUP_NOT_FOUND", "No clients found for group %s", ErrGroupNotFound, group)
	}
	return &dto.ListClientsResponse{
		Message: "Clients retrieved successfully",
		Items:   ToClientDTOs(clients),
	}, nil
}

func (f *ClientFlowImpl) ListGroups(ctx context.Context) (*dto.ListGroupsResponse, error) {
	groups, err := f.clientRepo.ListGroups(ctx)
	if err != nil {
		return nil, NewBusinessError("LIST_GROUPS_FAILED", "Failed to list groups", err)
	}
	if groups == nil {
		groups = []string{}
	}
	return &dto.ListGroupsResponse{
		Message: "Groups retrieved successfully",
		Groups:  groups,
	}, nil
}

// UpdateClient replaces every editable field of an existing client
func (f *ClientFlowImpl) UpdateClient(ctx context.Context, id uint, req *dto.ClientRequest) (*dto.ClientResponse, error) {
	if req == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Request body is required", ErrValidation)
	}

	client := clientFromRequest(req)
	client.ID = id
	if err := f.clientRepo.Update(ctx, client); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, NewBusinessErrorf("CLIENT_NOT_FOUND", "Client %d not found", ErrClientNotFound, id)
		case isDuplicateKey(err):
			return nil, NewBusinessErrorf("CLIENT_ALREADY_EXISTS", "Client with terminal ID '%s' already exists", ErrClientAlreadyExists, req.TerminalID)
		}
		return nil, NewBusinessError("UPDATE_CLIENT_FAILED", "Failed to update client", err)
	}
	invalidateReports(ctx, f.cache, f.logger)

	updated, err := f.clientRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("UPDATE_CLIENT_FAILED", "Failed to reload client", err)
	}
	if updated == nil {
		return nil, NewBusinessErrorf("CLIENT_NOT_FOUND", "Client %d not found", ErrClientNotFound, id)
	}

	return &dto.ClientResponse{
		Message: "Client updated successfully",
		Client:  ToClientDTO(updated),
	}, nil
}

// DeleteClient removes one client. Its transactions are left alone, so storage
// refuses the delete while any still reference the terminal.
func (f *ClientFlowImpl) DeleteClient(ctx context.Context, id uint) error {
	deleted, err := f.clientRepo.DeleteByID(ctx, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return NewBusinessErrorf("CLIENT_HAS_TRANSACTIONS", "Client %d still has transactions", ErrClientHasTransactions, id)
		}
		return NewBusinessError("DELETE_CLIENT_FAILED", "Failed to delete client", err)
	}
	if deleted == 0 {
		return NewBusinessErrorf("CLIENT_NOT_FOUND", "Client %d not found", ErrClientNotFound, id)
	}
	invalidateReports(ctx, f.cache, f.logger)
	return nil
}

// ImportClients inserts every row of the first sheet whose terminal ID is not
// registered yet. Skipped rows are reported; inserts commit together or not at all.
func (f *ClientFlowImpl) ImportClients(ctx context.Context, r io.Reader) (*dto.ImportClientsResponse, error) {
	log := flowLogger(ctx, f.logger)

	xl, err := openWorkbook(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = xl.Close() }()

	sheets := xl.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewBusinessError("INVALID_SPREADSHEET", "Spreadsheet has no sheets", ErrInvalidSpreadsheet)
	}
	sheet, err := readSheet(xl, sheets[0], clientImportColumns)
	if err != nil {
		return nil, err
	}

	// one full scan keeps the query independent of the sheet size
	found, err := f.clientRepo.ByFilter(ctx, models.ClientFilter{}, "", 0, 0)
	if err != nil {
		return nil, NewBusinessError("IMPORT_CLIENTS_FAILED", "Failed to load existing clients", err)
	}
	existing := make(map[string]struct{}, len(found))
	for _, c := range found {
		existing[c.TerminalID] = struct{}{}
	}

	var (
		staged  []*models.Client
		reasons []string
	)
	seen := make(map[string]struct{})
	for i, row := range sheet.rows {
		req := dto.ClientRequest{
			TerminalID:   sheet.cell(row, colTerminalID),
			PhysicalTID:  sheet.cell(row, colPhysicalTID),
			Model:        sheet.cell(row, colModel),
			MerchantName: sheet.cell(row, colMerchantName),
			City:         sheet.cell(row, colCity),
			Group:        sheet.cell(row, colGroup),
			Branch:       sheet.cell(row, colBranch),
		}
		// header is row 1
		line := i + 2

		if _, ok := existing[req.TerminalID]; ok {
			reasons = append(reasons, fmt.Sprintf("Client with terminal ID '%s' already exists, skipping.", req.TerminalID))
			continue
		}
		if _, ok := seen[req.TerminalID]; ok && req.TerminalID != "" {
			reasons = append(reasons, fmt.Sprintf("Row %d: terminal ID '%s' is repeated in the file, skipping.", line, req.TerminalID))
			continue
		}
		if err := f.validator.Struct(&req); err != nil {
			reasons = append(reasons, fmt.Sprintf("Row %d: %s, skipping.", line, describeInvalidRow(err)))
			continue
		}

		seen[req.TerminalID] = struct{}{}
		staged = append(staged, clientFromRequest(&req))
	}

	err = f.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		return f.clientRepo.SaveBatch(txCtx, staged)
	})
	if err != nil {
		log.WithError(err).WithField("rows", len(staged)).Error("client import rolled back")
		if isDuplicateKey(err) {
			return nil, NewBusinessError("CLIENT_ALREADY_EXISTS", "Failed to add clients", fmt.Errorf("%w: %v", ErrClientAlreadyExists, err))
		}
		return nil, NewBusinessError("IMPORT_CLIENTS_FAILED", "Failed to add clients", err)
	}

	clientsImportedTotal.WithLabelValues("inserted").Add(float64(len(staged)))
	clientsImportedTotal.WithLabelValues("skipped").Add(float64(len(reasons)))
	if len(staged) > 0 {
		invalidateReports(ctx, f.cache, f.logger)
	}
	log.WithFields(logrus.Fields{
		"sheet":    sheet.name,
		"inserted": len(staged),
		"skipped":  len(reasons),
	}).Info("clients imported")

	message := fmt.Sprintf("%d clients added successfully!", len(staged))
	if len(reasons) > 0 {
		message += " Some clients were skipped."
	}
	if reasons == nil {
		reasons = []string{}
	}
	return &dto.ImportClientsResponse{
		Message:     message,
		Inserted:    len(staged),
		Skipped:     len(reasons),
		SkipReasons: reasons,
	}, nil
}

func describeInvalidRow(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(fields, ", ")
}

// DeleteGroup removes a group's transactions and then its clients. The two
// steps commit separately.
func (f *ClientFlowImpl) DeleteGroup(ctx context.Context, group string) (*dto.DeleteGroupResponse, error) {
	exists, err := f.clientRepo.Exists(ctx, models.ClientFilter{Group: &group})
	if err != nil {
		return nil, NewBusinessError("DELETE_GROUP_FAILED", "Failed to look up group", err)
	}
	if !exists {
		return nil, NewBusinessErrorf("GROUP_NOT_FOUND", "Group %s not found", ErrGroupNotFound, group)
	}

	var deletedTxs int64
	res, err := f.transactionFlow.DeleteByGroup(ctx, group)
	switch {
	case err == nil:
		deletedTxs = res.Deleted
	case IsTransactionsNotFound(err):
	default:
		return nil, err
	}

	deleted, err := f.clientRepo.DeleteByFilter(ctx, models.ClientFilter{Group: &group})
	if err != nil {
		return nil, NewBusinessError("DELETE_GROUP_FAILED", "Failed to delete clients of group", err)
	}
	invalidateReports(ctx, f.cache, f.logger)
	flowLogger(ctx, f.logger).WithFields(logrus.Fields{
		"group":        group,
		"clients":      deleted,
		"transactions": deletedTxs,
	}).Info("group deleted")

	return &dto.DeleteGroupResponse{
		Message:             fmt.Sprintf("All clients in group %s deleted successfully!", group),
		Group:               group,
		DeletedClients:      deleted,
		DeletedTransactions: deletedTxs,
	}, nil
}

// DeleteAll removes every transaction and then every client
func (f *ClientFlowImpl) DeleteAll(ctx context.Context) (*dto.DeleteAllClientsResponse, error) {
	var deletedTxs int64
	res, err := f.transactionFlow.DeleteAll(ctx)
	switch {
	case err == nil:
		deletedTxs = res.Deleted
	case IsTransactionsNotFound(err):
	default:
		return nil, err
	}

	deleted, err := f.clientRepo.DeleteByFilter(ctx, models.ClientFilter{})
	if err != nil {
		return nil, NewBusinessError("DELETE_ALL_CLIENTS_FAILED", "Failed to delete clients", err)
	}
	if deleted == 0 {
		return nil, NewBusinessError("NO_CLIENTS", "No Client found", ErrNoClients)
	}
	invalidateReports(ctx, f.cache, f.logger)

	return &dto.DeleteAllClientsResponse{
		Message:             "All clients deleted successfully!",
		DeletedClients:      deleted,
		DeletedTransactions: deletedTxs,
	}, nil
}
