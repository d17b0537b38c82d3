package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pocket-university-api/internal/dto"
	"github.com/noah-isme/pocket-university-api/internal/models"
	"github.com/noah-isme/pocket-university-api/pkg/response"
)

type messageService interface {
	Send(ctx context.Context, actor *models.User, req dto.SendMessageRequest) (*models.Message, models.Outcome, error)
	Conversation(actor *models.User, otherID string) ([]models.Message, error)
	Contacts(actor *models.User, query string) ([]models.PublicUser, error)
}

// MessageHandler exposes direct messaging.
type MessageHandler struct {
	service messageService
}

// NewMessageHandler constructs the handler.
func NewMessageHandler(svc messageService) *MessageHandler {
	return &MessageHandler{service: svc}
}

// Contacts godoc
// @Summary List chat contacts
// @Tags Messages
// @Produce json
// @Param q query string false "Match on name or id"
// @Success 200 {object} response.Envelope
// @Router /messages/contacts [get]
func (h *MessageHandler) Contacts(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	contacts, err := h.service.Contacts(actor, c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contacts)
}

// Conversation godoc
// @Summary Conversation with a user
// @Tags Messages
// @Produce json
// @Param userId path string true "Other participant"
// @Success 200 {object} response.Envelope
// @Router /messages/{userId} [get]
func (h *MessageHandler) Conversation(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	messages, err := h.service.Conversation(actor, c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages)
}

// Send godoc
// @Summary Send a message
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body dto.SendMessageRequest true "Message"
// @Success 201 {object} response.Envelope
// @Router /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.SendMessageRequest
	if !bindJSON(c, &req, "invalid message payload") {
		return
	}
	message, outcome, err := h.service.Send(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOutcome(c, http.StatusCreated, message, outcome)
}
