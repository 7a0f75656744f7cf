package handlers

import (
	"net/http"

	"github.com/SscSPs/factor_ops_app/internal/core/domain"
	portssvc "github.com/SscSPs/factor_ops_app/internal/core/ports/services"
	"github.com/SscSPs/factor_ops_app/internal/dto"
	"github.com/gin-gonic/gin"
)

type installmentHandler struct {
	installmentService portssvc.InstallmentSvc
}

func registerInstallmentRoutes(companyGroup *gin.RouterGroup, installmentService portssvc.InstallmentSvc) {
	h := &installmentHandler{installmentService: installmentService}
	companyGroup.GET("/installments/eligible", h.listEligibleInstallments)
}

// EligibleInstallmentsResponse wraps the installments that can be placed on an operation.
type EligibleInstallmentsResponse struct {
	Installments []domain.EligibleInstallment `json:"installments"`
}

// listEligibleInstallments godoc
// @Summary List eligible installments
// @Description Lists receivable installments that can be added to an operation. Discount
// @Description needs installments the company still holds; buyback needs installments held by a factor.
// @Tags installments
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   actionType query string false "discount or buyback" Enums(discount, buyback)
// @Param   factorID query string false "Only installments held by this factor (buyback)"
// @Param   limit query int false "Maximum number of installments" minimum(1) maximum(500)
// @Success 200 {object} EligibleInstallmentsResponse
// @Failure 400 {object} APIErrorResponse
// @Failure 401 {object} APIErrorResponse
// @Failure 403 {object} APIErrorResponse
// @Security BearerAuth
// @Router /companies/{company_id}/installments/eligible [get]
func (h *installmentHandler) listEligibleInstallments(c *gin.Context) {
	var params dto.ListEligibleInstallmentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindFailed(c, "ListEligibleInstallments query", err)
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	installments, err := h.installmentService.ListEligibleInstallments(c.Request.Context(), c.Param("company_id"), userID, params)
	if err != nil {
		respondError(c, err, "List eligible installments")
		return
	}
	if installments == nil {
		installments = []domain.EligibleInstallment{}
	}
	c.JSON(http.StatusOK, EligibleInstallmentsResponse{Installments: installments})
}
