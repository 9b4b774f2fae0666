package handler

import (
	"net/http"

	"bdhishab/internal/apierror"
	"bdhishab/internal/dto"
	"bdhishab/internal/middleware"
	"bdhishab/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LedgerHandler struct{ svc service.LedgerService }

func NewLedgerHandler(svc service.LedgerService) *LedgerHandler { return &LedgerHandler{svc: svc} }

// GetBalance godoc
// @Summary Returns the current balance of a store
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/stores/{id}/balance [get]
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid store ID"))
		return
	}
	resp, err := h.svc.GetBalance(c.Request.Context(), storeID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListEntries godoc
// @Summary Lists ledger entries for a store, newest first
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param type query string false "Entry type"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param sign query string false "credit | debit"
// @Success 200 {object} dto.EntryListResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/stores/{id}/ledger [get]
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid store ID"))
		return
	}
	var filter dto.EntryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid query parameters"))
		return
	}
	resp, err := h.svc.ListEntries(c.Request.Context(), storeID, filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Audit godoc
// @Summary Verifies the running balance against a full replay of the entry log
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Success 200 {object} dto.AuditResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/stores/{id}/ledger/audit [get]
func (h *LedgerHandler) Audit(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid store ID"))
		return
	}
	resp, err := h.svc.VerifyBalance(c.Request.Context(), storeID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ManualAdd godoc
// @Summary Credits the store balance manually
// @Tags ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param body body dto.ManualMovementRequest true "Amount to add"
// @Success 201 {object} dto.MovementResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/stores/{id}/ledger/add [post]
func (h *LedgerHandler) ManualAdd(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid store ID"))
		return
	}
	var req dto.ManualMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actor, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.ManualAdd(c.Request.Context(), storeID, req.Amount, req.Notes, actor)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ManualDeduct godoc
// @Summary Debits the store balance manually
// @Tags ledger
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param body body dto.ManualMovementRequest true "Amount to deduct"
// @Success 201 {object} dto.MovementResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/stores/{id}/ledger/deduct [post]
func (h *LedgerHandler) ManualDeduct(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid store ID"))
		return
	}
	var req dto.ManualMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actor, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.ManualDeduct(c.Request.Context(), storeID, req.Amount, req.Notes, actor)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
