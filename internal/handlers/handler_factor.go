package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/SscSPs/factor_ops_app/internal/dto"
	"github.com/SscSPs/factor_ops_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// factorHandler handles HTTP requests related to factors.
type factorHandler struct {
	factorService portssvc.FactorSvcFacade
}

func newFactorHandler(fs portssvc.FactorSvcFacade) *factorHandler {
	return &factorHandler{
		factorService: fs,
	}
}

// registerFactorRoutes registers factor routes under a company group.
func registerFactorRoutes(companyGroup *gin.RouterGroup, factorService portssvc.FactorSvcFacade) {
	h := newFactorHandler(factorService)

	factors := companyGroup.Group("/factors")
	{
		factors.POST("", h.createFactor)
		factors.GET("", h.listFactors)
		factors.GET("/:factor_id", h.getFactor)
		factors.PATCH("/:factor_id", h.updateFactor)
	}
}

// createFactor godoc
// @Summary Register a factor
// @Description Registers a factoring company the company trades receivables with (requires admin role).
// @Tags factors
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   factor body dto.CreateFactorRequest true "Factor details"
// @Success 201 {object} dto.FactorResponse
// @Failure 400 {object} APIErrorResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 409 {object} APIErrorResponse "Code already used"
// @Security BearerAuth
// @Router /companies/{company_id}/factors [post]
func (h *factorHandler) createFactor(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	var req dto.CreateFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "CreateFactor", err)
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	factor, err := h.factorService.CreateFactor(c.Request.Context(), companyID, req, userID)
	if err != nil {
		respondError(c, err, "Create factor")
		return
	}

	logger.Info("Factor created successfully", slog.String("factor_id", factor.FactorID), slog.String("code", factor.Code))
	c.JSON(http.StatusCreated, dto.ToFactorResponse(factor))
}

// listFactors godoc
// @Summary List factors
// @Description Lists the factors of the company. Inactive factors are included on request.
// @Tags factors
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   includeInactive query bool false "Include inactive factors"
// @Success 200 {object} dto.ListFactorsResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Security BearerAuth
// @Router /companies/{company_id}/factors [get]
func (h *factorHandler) listFactors(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	includeInactive, _ := strconv.ParseBool(c.DefaultQuery("includeInactive", "false"))
	factors, err := h.factorService.ListFactors(c.Request.Context(), c.Param("company_id"), userID, includeInactive)
	if err != nil {
		respondError(c, err, "List factors")
		return
	}
	c.JSON(http.StatusOK, dto.ToListFactorsResponse(factors))
}

// getFactor godoc
// @Summary Get a factor
// @Tags factors
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   factor_id path string true "Factor ID"
// @Success 200 {object} dto.FactorResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Security BearerAuth
// @Router /companies/{company_id}/factors/{factor_id} [get]
func (h *factorHandler) getFactor(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	factor, err := h.factorService.GetFactorByID(c.Request.Context(), c.Param("company_id"), c.Param("factor_id"), userID)
	if err != nil {
		respondError(c, err, "Get factor")
		return
	}
	c.JSON(http.StatusOK, dto.ToFactorResponse(factor))
}

// updateFactor godoc
// @Summary Update a factor
// @Description Changes a factor. Name, code and counterpart cannot change once an operation references the factor.
// @Tags factors
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   factor_id path string true "Factor ID"
// @Param   changes body dto.UpdateFactorRequest true "Fields to change"
// @Success 200 {object} dto.FactorResponse
// @Failure 400 {object} APIErrorResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Failure 404 {object} APIErrorResponse
// @Failure 409 {object} APIErrorResponse
// @Security BearerAuth
// @Router /companies/{company_id}/factors/{factor_id} [patch]
func (h *factorHandler) updateFactor(c *gin.Context) {
	var req dto.UpdateFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, "UpdateFactor", err)
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	factor, err := h.factorService.UpdateFactor(c.Request.Context(), c.Param("company_id"), c.Param("factor_id"), req, userID)
	if err != nil {
		respondError(c, err, "Update factor")
		return
	}
	c.JSON(http.StatusOK, dto.ToFactorResponse(factor))
}
