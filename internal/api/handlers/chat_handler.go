package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/api/dto"
	"github.com/bikepool/bikepool/internal/domain/booking"
	"github.com/bikepool/bikepool/internal/domain/message"
	"github.com/bikepool/bikepool/internal/domain/user"
	"github.com/bikepool/bikepool/pkg/websocket"
)

// ListMessages handles GET /v1/rides/:id/messages
func (h *Handlers) ListMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride id"})
		return
	}

	auth := authFrom(c)
	if ok, err := h.isRideParticipant(c, id, auth); err != nil {
		h.respondError(c, err)
		return
	} else if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only ride participants can read the chat"})
		return
	}

	msgs, err := h.Messages.ListByRide(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]dto.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp := dto.MessageResponse{
			ID:        m.ID,
			RideID:    m.RideID,
			SenderID:  m.SenderID,
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		}
		if u, err := h.Users.GetByID(c.Request.Context(), m.SenderID); err == nil {
			resp.Sender = u.Username
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// PostMessage handles POST /v1/rides/:id/messages
//
// The message is persisted first, then fanned out to everyone joined to the
// ride's room.
func (h *Handlers) PostMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride id"})
		return
	}

	var req dto.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	auth := authFrom(c)
	if ok, err := h.isRideParticipant(c, id, auth); err != nil {
		h.respondError(c, err)
		return
	} else if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only ride participants can post to the chat"})
		return
	}

	m := &message.Message{
		ID:        uuid.New(),
		RideID:    id,
		SenderID:  auth.UserID,
		Text:      req.Text,
		CreatedAt: time.Now(),
	}
	if err := h.Messages.Create(c.Request.Context(), m); err != nil {
		h.respondError(c, err)
		return
	}

	h.Hub.BroadcastToRide(id.String(), websocket.Message{
		Type: "chat_message",
		Data: gin.H{
			"message_id": m.ID.String(),
			"ride_id":    m.RideID.String(),
			"sender":     auth.Username,
			"text":       m.Text,
			"timestamp":  m.CreatedAt.Format("15:04"),
		},
	})

	c.JSON(http.StatusCreated, dto.SuccessResponse{Message: "Message sent", Data: gin.H{"id": m.ID}})
}

func (h *Handlers) isRideParticipant(c *gin.Context, rideID uuid.UUID, auth user.AuthContext) (bool, error) {
	r, err := h.RideRepo.GetByID(c.Request.Context(), rideID)
	if err != nil {
		return false, err
	}
	if r.OwnerID == auth.UserID {
		return true, nil
	}
	_, err = h.Bookings.Get(c.Request.Context(), rideID, auth.UserID)
	if err == booking.ErrBookingNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
