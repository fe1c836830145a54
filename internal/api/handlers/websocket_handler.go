package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"github.com/bikepool/bikepool/pkg/logger"
	"github.com/bikepool/bikepool/pkg/websocket"
)

// HandleWebSocket handles GET /v1/ws
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	auth := authFrom(c)

	upgrader := gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins in development
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade to WebSocket", logger.Err(err))
		return
	}

	client := websocket.NewClient(h.Hub, conn, auth.UserID.String(), auth.Username, h.Logger)
	h.Hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
