package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/practicedesk/billing/internal/api/dto"
	ierr "github.com/practicedesk/billing/internal/errors"
	"github.com/practicedesk/billing/internal/logger"
	"github.com/practicedesk/billing/internal/service"
	"github.com/practicedesk/billing/internal/signal"
	"github.com/practicedesk/billing/internal/types"
)

type NotificationHandler struct {
	dispatcher service.NotificationDispatcher
	bus        signal.Bus
	log        *logger.Logger
}

func NewNotificationHandler(dispatcher service.NotificationDispatcher, bus signal.Bus, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher, bus: bus, log: log}
}

// RunPass runs a notification pass right away
// POST /v1/notifications/run
func (h *NotificationHandler) RunPass(c *gin.Context) {
	res, err := h.dispatcher.RunPass(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.RunNotificationsResponse{
		Day:        types.FormatDate(res.Day),
		Considered: res.Considered,
		Emitted:    res.Emitted,
	})
}

// PublishSignal lets the client record store announce changes
// POST /v1/signals
func (h *NotificationHandler) PublishSignal(c *gin.Context) {
	var req dto.PublishSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	if err := h.bus.Publish(c.Request.Context(), signal.New(req.Type, req.AffectedID)); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusAccepted)
}
