package handlers

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"pricelens/models"
	"pricelens/services"
)

// CollabHandlers upgrades connections into collaborative calculator sessions
type CollabHandlers struct {
	collab   *services.CollabService
	upgrader websocket.Upgrader
}

func NewCollabHandlers(collab *services.CollabService) *CollabHandlers {
	return &CollabHandlers{
		collab: collab,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Embeds live on customer domains, origin checking happens
			// at the CORS layer for the REST API only.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// wsSink adapts one websocket connection to the relay's event sink.
// gorilla connections allow a single concurrent writer, hence the mutex.
type wsSink struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

func (s *wsSink) SendEvent(event models.SessionEvent) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.conn.WriteJSON(event)
}

// HandleSession joins the caller to a session and relays their messages
// until the connection drops.
func (ch *CollabHandlers) HandleSession(c echo.Context) error {
	sessionID := c.Param("session")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session id required"})
	}

	userID := c.QueryParam("user_id")
	if userID == "" {
		userID = fmt.Sprintf("user_%d", time.Now().UnixNano())
	}
	label := c.QueryParam("label")
	if label == "" {
		label = "Anonymous"
	}

	conn, err := ch.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	participant := models.Participant{UserID: userID, Label: label}
	sink := &wsSink{conn: conn}

	if err := ch.collab.Join(sessionID, participant, sink); err != nil {
		conn.WriteJSON(map[string]string{"error": err.Error()})
		return nil
	}
	defer ch.collab.Leave(sessionID, userID)

	for {
		var msg models.ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Session %s: connection error for %s: %v", sessionID, userID, err)
			}
			return nil
		}

		switch msg.Type {
		case "update":
			if msg.Inputs == nil || msg.Result == nil {
				continue
			}
			ch.collab.BroadcastUpdate(sessionID, userID, *msg.Inputs, *msg.Result)
		case "typing":
			ch.collab.SignalTyping(sessionID, userID)
		default:
			log.Printf("Session %s: ignoring unknown message type %q from %s", sessionID, msg.Type, userID)
		}
	}
}

// GetParticipants lists the members of a session over plain HTTP, for
// clients that want a roster before connecting.
func (ch *CollabHandlers) GetParticipants(c echo.Context) error {
	sessionID := c.Param("session")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "session id required"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id":   sessionID,
		"participants": ch.collab.Participants(sessionID),
	})
}
