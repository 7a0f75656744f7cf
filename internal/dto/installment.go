package dto

// ListEligibleInstallmentsParams defines query parameters for listing installments
// that can be placed on an operation.
type ListEligibleInstallmentsParams struct {
	ActionType string  `form:"actionType,default=discount" binding:"oneof=discount buyback"`
	FactorID   *string `form:"factorID"`
	Limit      int     `form:"limit,default=50" binding:"min=1,max=500"`
}
