package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/practicedesk/billing/internal/api/dto"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/service"
)

type PaymentHandler struct {
	service service.PaymentControlService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentControlService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log}
}

// ListGroups returns the pending installments grouped by client, most urgent first
// GET /v1/payments/groups
func (h *PaymentHandler) ListGroups(c *gin.Context) {
	groups, err := h.service.ListGroups(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, service.NewListPaymentGroupsResponse(groups))
}

// CreateInstallment adds an installment outside any agreement
// POST /v1/payments
func (h *PaymentHandler) CreateInstallment(c *gin.Context) {
	var req dto.CreateInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind create installment request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	inst, err := h.service.CreateInstallment(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewInstallmentResponse(inst, service.Classify(inst, inst.CreatedAt)))
}

// Settle marks an installment as paid
// POST /v1/payments/:id/settle
func (h *PaymentHandler) Settle(c *gin.Context) {
	id, ok := installmentID(c)
	if !ok {
		return
	}

	groups, err := h.service.MarkAsPaid(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, service.NewListPaymentGroupsResponse(groups))
}

// Postpone moves the due date of an unsettled installment
// POST /v1/payments/:id/postpone
func (h *PaymentHandler) Postpone(c *gin.Context) {
	id, ok := installmentID(c)
	if !ok {
		return
	}

	var req dto.PostponeInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	groups, err := h.service.Postpone(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, service.NewListPaymentGroupsResponse(groups))
}

// Delete removes one installment
// DELETE /v1/payments/:id
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := installmentID(c)
	if !ok {
		return
	}

	groups, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, service.NewListPaymentGroupsResponse(groups))
}

// CleanupOrphans deletes the installments of clients that no longer exist
// POST /v1/payments/cleanup
func (h *PaymentHandler) CleanupOrphans(c *gin.Context) {
	removed, err := h.service.CleanupOrphans(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func installmentID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Installment ID is required").
			Mark(ierr.ErrValidation))
		return "", false
	}
	return id, true
}
