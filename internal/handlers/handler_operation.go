package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	"github.com/SscSPs/factor_ops_app/internal/blob"
	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/SscSPs/factor_ops_app/internal/dto"
	"github.com/SscSPs/factor_ops_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// operationHandler handles HTTP requests for factor operations, their items,
// versions, responses and settlement.
type operationHandler struct {
	operationService  portssvc.OperationSvcFacade
	settlementService portssvc.SettlementSvc
	artifacts         blob.Store
}

func newOperationHandler(ops portssvc.OperationSvcFacade, ss portssvc.SettlementSvc, artifacts blob.Store) *operationHandler {
	return &operationHandler{
		operationService:  ops,
		settlementService: ss,
		artifacts:         artifacts,
	}
}

// registerOperationRoutes registers operation routes under a company group.
func registerOperationRoutes(companyGroup *gin.RouterGroup, operationService portssvc.OperationSvcFacade, settlementService portssvc.SettlementSvc, artifacts blob.Store) {
	h := newOperationHandler(operationService, settlementService, artifacts)

	operations := companyGroup.Group("/operations")
	{
		operations.POST("", h.createOperation)
		operations.GET("", h.listOperations)
	}

	operation := companyGroup.Group("/operations/:operation_id")
	{
		operation.GET("", h.getOperation)

		operation.POST("/items", h.addOperationItem)
		operation.DELETE("/items/:item_id", h.deleteOperationItem)

		operation.POST("/send", h.sendToFactor)
		operation.POST("/responses", h.applyResponses)
		operation.GET("/responses", h.listResponses)
		operation.POST("/conclude", h.concludeOperation)
		operation.POST("/cancel", h.cancelOperation)

		operation.GET("/versions", h.listVersions)
		operation.GET("/versions/:version_id", h.getVersion)
		operation.GET("/versions/:version_id/artifacts/:artifact", h.downloadArtifact)

		operation.GET("/postings", h.listPostings)
		operation.GET("/audit", h.listAuditTrail)
	}
}

// createOperation godoc
// @Summary Open a draft operation
// @Description Opens a draft factor operation against an active factor. The factor's rates are copied onto the operation.
// @Tags operations
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   operation body dto.CreateOperationRequest true "Operation header"
// @Param   Idempotency-Key header string false "Replays the first response for repeated requests"
// @Success 201 {object} dto.OperationResponse
// @Failure 400 {object} APIErrorResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse "Factor not found"
// @Security BearerAuth
// @Router /companies/{company_id}/operations [post]
func (h *operationHandler) createOperation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "CreateOperation", err)
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	op, err := h.operationService.CreateOperation(c.Request.Context(), c.Param("company_id"), req, userID)
	if err != nil {
		respondError(c, err, "Create operation")
		return
	}

	logger.Info("Operation created successfully", slog.String("operation_id", op.OperationID), slog.Int64("operation_number", op.OperationNumber))
	c.JSON(http.StatusCreated, dto.ToOperationResponse(op))
}

// listOperations godoc
// @Summary List operations
// @Description Lists the company's operations, newest first, one page at a time.
// @Tags operations
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   status query string false "Filter by status" Enums(draft, sent_to_factor, completed, cancelled)
// @Param   factorID query string false "Filter by factor"
// @Param   issueDateFrom query string false "Issue date lower bound (YYYY-MM-DD)"
// @Param   issueDateTo query string false "Issue date upper bound (YYYY-MM-DD)"
// @Param   limit query int false "Page size" minimum(1) maximum(100)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListOperationsResponse
// @Failure 400 {object} APIErrorResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Security BearerAuth
// @Router /companies/{company_id}/operations [get]
func (h *operationHandler) listOperations(c *gin.Context) {
	var params dto.ListOperationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindFailed(c, "ListOperations query", err)
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	resp, err := h.operationService.ListOperations(c.Request.Context(), c.Param("company_id"), userID, params)
	if err != nil {
		respondError(c, err, "List operations")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getOperation godoc
// @Summary Get an operation
// @Description Retrieves an operation with its items.
// @Tags operations
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   operation_id path string true "Operation ID"
// @Success 200 {object} dto.OperationResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Security BearerAuth
// @Router /companies/{company_id}/operations/{operation_id} [get]
func (h *operationHandler) getOperation(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	op, err := h.operationService.GetOperationByID(c.Request.Context(), c.Param("company_id"), c.Param("operation_id"), userID)
	if err != nil {
		respondError(c, err, "Get operation")
		return
	}
	c.JSON(http.StatusOK, dto.ToOperationResponse(op))
}

// addOperationItem godoc
// @Summary Add an installment to a draft operation
// @Description Freezes the installment's current number, due date and open amount on a new item.
// @Tags operations
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   operation_id path string true "Operation ID"
// @Param   item body dto.AddOperationItemRequest true "Item"
// @Success 201 {object} dto.OperationItemResponse
// @Failure 400 {object} APIErrorResponse "Installment not eligible or already on the operation"
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Failure 409 {object} APIErrorResponse "Operation is not a draft"
// @Security BearerAuth
// @Router /companies/{company_id}/operations/{operation_id}/items [post]
func (h *operationHandler) addOperationItem(c *gin.Context) {
	var req dto.AddOperationItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "AddOperationItem", err)
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	item, err := h.operationService.AddOperationItem(c.Request.Context(), c.Param("company_id"), c.Param("operation_id"), req, userID)
	if err != nil {
		respondError(c, err, "Add operation item")
		return
	}
	c.JSON(http.StatusCreated, dto.ToOperationItemResponse(item))
}

// deleteOperationItem godoc
// @Summary Remove an item from a draft operation
// @Tags operations
// @Param   company_id path string true "Company ID"
// @Param   operation_id path string true "Operation ID"
// @Param   item_id path string true "Item ID"
// @Success 204 "No Content"
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Failure 409 {object} APIErrorResponse "Operation is not a draft"
// @Security BearerAuth
// @Router /companies/{company_id}/operations/{operation_id}/items/{item_id} [delete]
func (h *operationHandler) deleteOperationItem(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	err := h.operationService.DeleteOperationItem(c.Request.Context(), c.Param("company_id"), c.Param("operation_id"), c.Param("item_id"), userID)
	if err != nil {
		respondError(c, err, "Delete operation item")
		return
	}
	c.Status(http.StatusNoContent)
}

// sendToFactor godoc
// @Summary Send an operation to the factor
// @Description Freezes the next version, stores its transmission files and moves the operation to sent_to_factor.
// @Description An operation that is already sent is returned unchanged.
// @Tags operations
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   operation_id path string true "Operation ID"
// @Success 200 {object} dto.OperationResponse
// @Failure 400 {object} APIErrorResponse "Operation has no items"
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Failure 409 {object} APIErrorResponse
// @Security BearerAuth
// @Router /companies/{company_id}/operations/{operation_id}/send [post]
func (h *operationHandler) sendToFactor(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	op, err := h.operationService.SendToFactor(c.Request.Context(), c.Param("company_id"), c.Param("operation_id"), userID)
	if err != nil {
		respondError(c, err, "Send operation")
		return
	}

	logger.Info("Operation sent to factor", slog.String("operation_id", op.OperationID), slog.Int("version", op.VersionCounter))
	c.JSON(http.StatusOK, dto.ToOperationResponse(op))
}

// applyResponses godoc
// @Summary Apply the factor's responses
// @Description Records the factor's verdict for items of the current version and recomputes the totals.
// @Description Responses may arrive in several calls; a later response for an item replaces the earlier one.
// @Tags operations
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   operation_id path string true "Operation ID"
// @Param   responses body dto.ApplyResponsesRequest true "Responses"
// @Success 200 {object} dto.OperationResponse
// @Failure 400 {object} APIErrorResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Failure 409 {object} APIErrorResponse "Operation is not sent to the factor"
// @Security BearerAuth
// @Router /companies/{company_id}/operations/{operation_id}/responses [post]
func (h *operationHandler) applyResponses(c *gin.Context) {
	var req dto.ApplyResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "ApplyResponses", err)
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	op, err := h.operationService.ApplyResponses(c.Request.Context(), c.Param("company_id"), c.Param("operation_id"), req, userID)
	if err != nil {
		respondError(c, err, "Apply responses")
		return
	}
	c.JSON(http.StatusOK, dto.ToOperationResponse(op))
}

// listResponses godoc
// @Summary List the factor's responses
// @Description Lists the responses recorded for a version, the current one unless versionID is given.
// @Tags operations
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   operation_id path string true "Operation ID"
// @Param   versionID query string false "Version ID"
// @Success 200 {array} domain.OperationResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Security BearerAuth
// @Router /companies/{company_id}/operations/{operation_id}/responses [get]
func (h *operationHandler) listResponses(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	responses, err := h.operationService.ListResponses(c.Request.Context(), c.Param("company_id"), c.Param("operation_id"), c.Query("versionID"), userID)
	if err != nil {
		respondError(c, err, "List responses")
		return
	}
	if responses == nil {
		responses = []domain.OperationResponse{}
	}
	c.JSON(http.StatusOK, responses)
}

// concludeOperation godoc
// @Summary Conclude an operation
// @Description Settles a sent operation: moves custody of every accepted item, books the factor costs
// @Description as a payable and completes the operation. Safe to repeat; a completed operation is
// @Description returned with idempotent set. A 503 means some effects may be applied and the call should be retried.
// @Tags operations
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   operation_id path string true "Operation ID"
// @Param   settlement body dto.ConcludeOperationRequest true "Settlement date"
// @Success 200 {object} dto.ConcludeOperationResponse
// @Failure 400 {object} APIErrorResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Failure 409 {object} APIErrorResponse "Operation cannot be concluded from its status"
// @Failure 503 {object} APIErrorResponse "Partially applied, retry"
// @Security BearerAuth
// @Router /companies/{company_id}/operations/{operation_id}/conclude [post]
func (h *operationHandler) concludeOperation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ConcludeOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "ConcludeOperation", err)
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	result, err := h.settlementService.ConcludeOperation(c.Request.Context(), c.Param("company_id"), c.Param("operation_id"), req, userID)
	if err != nil {
		respondError(c, err, "Conclude operation")
		return
	}

	logger.Info("Operation concluded", slog.String("operation_id", result.Operation.OperationID), slog.Bool("idempotent", result.Idempotent))
	c.JSON(http.StatusOK, dto.ConcludeOperationResponse{
		Idempotent: result.Idempotent,
		Operation:  dto.ToOperationResponse(result.Operation),
	})
}

// cancelOperation godoc
// @Summary Cancel an operation
// @Description Cancels a draft or sent operation. A cancelled operation is returned unchanged.
// @Tags operations
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   operation_id path string true "Operation ID"
// @Param   cancellation body dto.CancelOperationRequest true "Reason"
// @Success 200 {object} dto.OperationResponse
// @Failure 400 {object} APIErrorResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Failure 409 {object} APIErrorResponse "Operation is completed"
// @Security BearerAuth
// @Router /companies/{company_id}/operations/{operation_id}/cancel [post]
func (h *operationHandler) cancelOperation(c *gin.Context) {
	var req dto.CancelOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "CancelOperation", err)
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	op, err := h.operationService.CancelOperation(c.Request.Context(), c.Param("company_id"), c.Param("operation_id"), req, userID)
	if err != nil {
		respondError(c, err, "Cancel operation")
		return
	}
	c.JSON(http.StatusOK, dto.ToOperationResponse(op))
}

// listVersions godoc
// @Summary List versions
// @Description Lists every version sent for the operation, oldest first, without snapshots.
// @Tags operations
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   operation_id path string true "Operation ID"
// @Success 200 {array} dto.VersionResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Security BearerAuth
// @Router /companies/{company_id}/operations/{operation_id}/versions [get]
func (h *operationHandler) listVersions(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	versions, err := h.operationService.ListVersions(c.Request.Context(), c.Param("company_id"), c.Param("operation_id"), userID)
	if err != nil {
		respondError(c, err, "List versions")
		return
	}
	c.JSON(http.StatusOK, dto.ToVersionResponses(versions))
}

// getVersion godoc
// @Summary Get a version
// @Description Retrieves one version including the snapshot that was sent.
// @Tags operations
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   operation_id path string true "Operation ID"
// @Param   version_id path string true "Version ID"
// @Success 200 {object} dto.VersionResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Security BearerAuth
// @Router /companies/{company_id}/operations/{operation_id}/versions/{version_id} [get]
func (h *operationHandler) getVersion(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	version, err := h.operationService.GetVersion(c.Request.Context(), c.Param("company_id"), c.Param("operation_id"), c.Param("version_id"), userID)
	if err != nil {
		respondError(c, err, "Get version")
		return
	}
	c.JSON(http.StatusOK, dto.ToVersionResponse(version, true))
}

// downloadArtifact godoc
// @Summary Download a transmission file
// @Description Streams one of the files stored when the version was sent.
// @Tags operations
// @Produce  octet-stream
// @Param   company_id path string true "Company ID"
// @Param   operation_id path string true "Operation ID"
// @Param   version_id path string true "Version ID"
// @Param   artifact path string true "Artifact" Enums(snapshot, csv, report)
// @Success 200 {file} binary
// @Failure 400 {object} APIErrorResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Security BearerAuth
// @Router /companies/{company_id}/operations/{operation_id}/versions/{version_id}/artifacts/{artifact} [get]
func (h *operationHandler) downloadArtifact(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	version, err := h.operationService.GetVersion(c.Request.Context(), c.Param("company_id"), c.Param("operation_id"), c.Param("version_id"), userID)
	if err != nil {
		respondError(c, err, "Download artifact")
		return
	}

	var key string
	switch c.Param("artifact") {
	case "snapshot":
		key = version.Artifacts.SnapshotKey
	case "csv":
		key = version.Artifacts.CSVKey
	case "report":
		key = version.Artifacts.ReportKey
	default:
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "artifact must be one of snapshot, csv, report"})
		return
	}
	if key == "" || h.artifacts == nil {
		c.JSON(http.StatusNotFound, APIErrorResponse{Error: "artifact not available"})
		return
	}

	info, body, err := h.artifacts.Get(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			logger.Warn("Artifact missing from blob store", slog.String("key", key))
			c.JSON(http.StatusNotFound, APIErrorResponse{Error: "artifact not available"})
			return
		}
		logger.Error("Failed to open artifact", slog.String("key", key), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, APIErrorResponse{Error: "Download artifact failed"})
		return
	}
	defer body.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	}
	if info.ETag != "" {
		headers["ETag"] = info.ETag
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, body, headers)
}

// listPostings godoc
// @Summary List postings
// @Description Lists the settlement effects recorded for the operation.
// @Tags operations
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   operation_id path string true "Operation ID"
// @Success 200 {array} dto.PostingResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Security BearerAuth
// @Router /companies/{company_id}/operations/{operation_id}/postings [get]
func (h *operationHandler) listPostings(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	postings, err := h.settlementService.ListPostings(c.Request.Context(), c.Param("company_id"), c.Param("operation_id"), userID)
	if err != nil {
		respondError(c, err, "List postings")
		return
	}
	c.JSON(http.StatusOK, dto.ToPostingResponses(postings))
}

// listAuditTrail godoc
// @Summary List the audit trail
// @Tags operations
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   operation_id path string true "Operation ID"
// @Success 200 {array} domain.AuditLog
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Security BearerAuth
// @Router /companies/{company_id}/operations/{operation_id}/audit [get]
func (h *operationHandler) listAuditTrail(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	entries, err := h.operationService.ListAuditTrail(c.Request.Context(), c.Param("company_id"), c.Param("operation_id"), userID)
	if err != nil {
		respondError(c, err, "List audit trail")
		return
	}
	if entries == nil {
		entries = []domain.AuditLog{}
	}
	c.JSON(http.StatusOK, entries)
}
