// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Mashyrano/Pos-performance-Tracker/app/dto"
	businessflow "github.com/Mashyrano/Pos-performance-Tracker/business_flow"
	"github.com/Mashyrano/Pos-performance-Tracker/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/sirupsen/logrus"
)

// baseHandler carries what every handler needs to answer requests
type baseHandler struct {
	validator *validator.Validate
	logger    logrus.FieldLogger
}

func newBaseHandler(logger logrus.FieldLogger) baseHandler {
	return baseHandler{validator: validator.New(), logger: logger}
}

func (h *baseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error:   dto.ErrorDetail{Code: errorCode, Details: details},
	})
}

func (h *baseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// FlowErrorResponse translates a business flow error into an HTTP error.
// Unexpected errors are logged and reported as 500 with their message.
func (h *baseHandler) FlowErrorResponse(c fiber.Ctx, err error, message, errorCode string) error {
	status := fiber.StatusInternalServerError
	switch {
	case businessflow.IsBadRequest(err):
		status = fiber.StatusBadRequest
	case businessflow.IsNotFound(err):
		status = fiber.StatusNotFound
	case businessflow.IsConflict(err):
		status = fiber.StatusConflict
	}

	if status != fiber.StatusInternalServerError {
		var be *businessflow.BusinessError
		if errors.As(err, &be) {
			return h.ErrorResponse(c, status, be.Message, be.Code, nil)
		}
		return h.ErrorResponse(c, status, message, errorCode, err.Error())
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestid.FromContext(c),
		"route":      c.Path(),
	}).WithError(err).Error(message)
	if code := businessflow.ErrorCode(err); code != "" {
		errorCode = code
	}
	return h.ErrorResponse(c, status, message, errorCode, err.Error())
}

// ValidationErrorResponse reports every failed field of a request body
func (h *baseHandler) ValidationErrorResponse(c fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}
	validationErrors := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		validationErrors = append(validationErrors, getValidationErrorMessage(fe))
	}
	return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
}

// createRequestContext returns the context handed to business flows; the
// caller must call cancel once the flow returns
func (h *baseHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	return h.createRequestContextWithTimeout(c, endpoint, utils.DefaultRequestTimeout)
}

func (h *baseHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, requestid.FromContext(c))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	return ctx, cancel
}

// pathParam returns the unescaped value of a route parameter
func pathParam(c fiber.Ctx, name string) string {
	raw := c.Params(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// uploadedFile returns the multipart file named "file" after checking its extension
func uploadedFile(c fiber.Ctx, allowed ...string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("no file part in the request")
	}
	if fh.Filename == "" {
		return nil, fmt.Errorf("no selected file")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !slices.Contains(allowed, ext) {
		return nil, fmt.Errorf("invalid file format %q, expected one of %s", ext, strings.Join(allowed, ", "))
	}
	return fh, nil
}

// sendAttachment streams an exported workbook as a download
func sendAttachment(c fiber.Ctx, file *dto.ExportFile) error {
	c.Set("Content-Type", utils.XLSXContentType)
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	return c.Send(file.Content)
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "numeric":
		return err.Field() + " must contain only numbers"
	case "datetime":
		return err.Field() + " must be a date formatted as " + err.Param()
	default:
		return err.Field() + " is invalid"
	}
}
