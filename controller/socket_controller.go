package controller

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github/itish2003/voicecare/models"
	"github/itish2003/voicecare/services"
)

const socketErrorReply = "Sorry, an error occurred. Please try again."

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SocketController runs the browser message channel. Frames are handled one
// at a time per connection.
type SocketController struct {
	assistant services.AssistantService
}

func NewSocketController(assistant services.AssistantService) *SocketController {
	return &SocketController{assistant: assistant}
}

// Handle is the Gin handler for GET /ws.
func (c *SocketController) Handle(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Printf("SOCKET: Upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("SOCKET: User connected from %s", conn.RemoteAddr())

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("SOCKET: Read error: %v", err)
			}
			log.Println("SOCKET: User disconnected")
			return
		}

		var msg models.SocketMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("SOCKET: Malformed frame: %v", err)
			if err := c.send(conn, socketErrorReply); err != nil {
				return
			}
			continue
		}
		if msg.Event != models.EventUserMessage {
			log.Printf("SOCKET: Ignoring event %q", msg.Event)
			continue
		}

		decision := c.assistant.Reply(ctx.Request.Context(), msg.Data)
		if err := c.send(conn, decision.Response); err != nil {
			return
		}
	}
}

func (c *SocketController) send(conn *websocket.Conn, text string) error {
	err := conn.WriteJSON(models.SocketMessage{Event: models.EventBotResponse, Data: text})
	if err != nil {
		log.Printf("SOCKET: Write failed: %v", err)
	}
	return err
}
