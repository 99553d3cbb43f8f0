package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autoshop/middleware"
	"autoshop/models"
	"autoshop/services/session"
)

type SessionHandler struct {
	svc   session.Service
	codec *middleware.SessionCodec
}

func NewSessionHandler(svc session.Service, codec *middleware.SessionCodec) *SessionHandler {
	return &SessionHandler{svc: svc, codec: codec}
}

type sessionResponse struct {
	Token string `json:"token,omitempty"`
	*models.SessionView
	Allowed []session.Event `json:"allowed"`
}

func respondView(c *gin.Context, status int, v *models.SessionView, token string) {
	c.JSON(status, sessionResponse{Token: token, SessionView: v, Allowed: session.Allowed(v.Session.State)})
}

// StartSession creates a new customer session and hands back its token.
func (h *SessionHandler) StartSession(c *gin.Context) {
	logger := getLogger(c)
	v, err := h.svc.Start(c.Request.Context())
	if err != nil {
		logger.Error("Failed to start session", zap.Error(err))
		respondError(c, "Failed to start session", err)
		return
	}
	token, err := h.codec.Issue(c, v.Session.ID)
	if err != nil {
		logger.Error("Failed to issue session token", zap.Error(err))
		respondError(c, "Failed to start session", err)
		return
	}
	respondView(c, http.StatusCreated, v, token)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	v, err := h.svc.View(c.Request.Context(), c.GetString(middleware.SessionIDKey))
	if err != nil {
		respondError(c, "Failed to load session", err)
		return
	}
	respondView(c, http.StatusOK, v, "")
}

func (h *SessionHandler) EndSession(c *gin.Context) {
	if err := h.svc.End(c.Request.Context(), c.GetString(middleware.SessionIDKey)); err != nil {
		respondError(c, "Failed to end session", err)
		return
	}
	h.codec.Clear(c)
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) dispatch(c *gin.Context, action session.Action) {
	v, err := h.svc.Dispatch(c.Request.Context(), c.GetString(middleware.SessionIDKey), action)
	if err != nil {
		respondError(c, "Request could not be applied", err)
		return
	}
	respondView(c, http.StatusOK, v, "")
}

func (h *SessionHandler) SubmitIdentity(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.dispatch(c, session.Action{Event: session.EventSubmitIdentity, Customer: &models.Customer{Name: req.Name, Email: req.Email}})
}

func (h *SessionHandler) SubmitVehicle(c *gin.Context) {
	var req models.VehicleInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.dispatch(c, session.Action{Event: session.EventSubmitVehicle, Vehicle: &req})
}

func (h *SessionHandler) SendMessage(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.dispatch(c, session.Action{Event: session.EventSendMessage, Message: req.Message})
}

func (h *SessionHandler) RequestSlots(c *gin.Context) {
	h.dispatch(c, session.Action{Event: session.EventRequestSlots})
}

func (h *SessionHandler) SelectSlot(c *gin.Context) {
	var req struct {
		Label string `json:"label" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.dispatch(c, session.Action{Event: session.EventSelectSlot, SlotLabel: req.Label})
}

func (h *SessionHandler) CancelSelection(c *gin.Context) {
	h.dispatch(c, session.Action{Event: session.EventCancelSelection})
}

func (h *SessionHandler) ConfirmSlot(c *gin.Context) {
	h.dispatch(c, session.Action{Event: session.EventConfirmSlot})
}

func (h *SessionHandler) NewBooking(c *gin.Context) {
	h.dispatch(c, session.Action{Event: session.EventNewBooking})
}
