package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/practicedesk/billing/internal/api/dto"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/service"
)

type AgreementHandler struct {
	service service.AgreementService
	log     *logger.Logger
}

func NewAgreementHandler(service service.AgreementService, log *logger.Logger) *AgreementHandler {
	return &AgreementHandler{service: service, log: log}
}

// SaveAgreement stores the terms of a parent record and regenerates its installments
// PUT /v1/agreements/:parent_id
func (h *AgreementHandler) SaveAgreement(c *gin.Context) {
	parentID := c.Param("parent_id")

	var req dto.SaveAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind agreement request", "parent_id", parentID, "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	result, err := h.service.SaveAgreement(c.Request.Context(), req.ToAgreement(parentID))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, service.NewAgreementResponse(parentID, result))
}

// DeleteAgreement removes every installment of a parent record
// DELETE /v1/agreements/:parent_id
func (h *AgreementHandler) DeleteAgreement(c *gin.Context) {
	parentID := c.Param("parent_id")

	var req dto.DeleteAgreementRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	ref, err := req.ToRef(parentID)
	if err != nil {
		c.Error(err)
		return
	}

	result, err := h.service.DeleteAgreement(c.Request.Context(), ref)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, service.NewAgreementResponse(parentID, result))
}
