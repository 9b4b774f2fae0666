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

type PurchaseHandler struct{ svc service.PurchaseService }

func NewPurchaseHandler(svc service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{svc: svc}
}

// Create registers a purchase on credit against a supplier.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actor, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Create(c.Request.Context(), req, actor)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Pay godoc
// @Summary Settles part or all of a purchase's due from the store balance
// @Tags purchases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Purchase ID"
// @Param body body dto.PayPurchaseRequest true "Payment data"
// @Success 200 {object} dto.PurchaseResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/purchases/{id}/pay [post]
func (h *PurchaseHandler) Pay(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid purchase ID"))
		return
	}
	var req dto.PayPurchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actor, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Pay(c.Request.Context(), id, req, actor)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns a single purchase by id.
func (h *PurchaseHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid purchase ID"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List returns a paginated list of purchases.
func (h *PurchaseHandler) List(c *gin.Context) {
	var filter dto.PurchaseFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid query parameters"))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
