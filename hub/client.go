package hub

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hivecraft/portal/auth"
	"github.com/hivecraft/portal/globals"
	"github.com/hivecraft/portal/types"
	"github.com/mitchellh/mapstructure"
)

const (
	maxMessageSize  = 4096
	pongWait        = 2 * time.Minute
	pingPeriod      = time.Minute
	writeWait       = 10 * time.Second
	sendChannelSize = 256
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages, closed by the hub on Forget.
	Send chan []byte

	id string
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		Send: make(chan []byte, sendChannelSize),
		id:   uuid.NewString(),
	}
}

// sendEvent delivers an event to this connection only, bypassing the rooms.
func (c *Client) sendEvent(name string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		globals.AppLogger.Error("could not marshal payload", "event", name, "error", err)
		return
	}
	raw, err := json.Marshal(types.WebsocketMessage{Event: name, Data: data})
	if err != nil {
		globals.AppLogger.Error("could not marshal envelope", "event", name, "error", err)
		return
	}
	c.hub.RLock()
	if _, ok := c.hub.clients[c]; ok {
		select {
		case c.Send <- raw:
		default:
		}
	}
	c.hub.RUnlock()
}

// ReadLoop pumps messages from the websocket connection to the hub.
//
// The application runs ReadLoop in a per-connection goroutine. The
// application ensures that there is at most one reader on a connection by
// executing all reads from this goroutine.
func (c *Client) ReadLoop() {
	defer func() {
		c.hub.Forget(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				globals.AppLogger.Info("ws closed unexpected", "error", err)
			}
			return
		}

		message := types.WebsocketMessage{}
		if err := json.Unmarshal(raw, &message); err != nil {
			globals.AppLogger.Warn("could not unmarshal ws message, dropped", "error", err)
			continue
		}
		c.handleMessage(&message)
	}
}

// handleMessage decodes and applies one client event. Malformed payloads
// and events from unauthenticated connections are dropped, never raised.
func (c *Client) handleMessage(message *types.WebsocketMessage) {
	switch message.Event {
	case types.MessageTypeAuthenticate:
		authMsgMap := make(map[string]interface{})
		if err := json.Unmarshal(message.Data, &authMsgMap); err != nil {
			globals.AppLogger.Warn("could not unmarshal authenticate data, dropped", "error", err)
			return
		}
		authMsg := types.AuthenticateData{}
		if err := mapstructure.WeakDecode(authMsgMap, &authMsg); err != nil {
			globals.AppLogger.Warn("could not decode authenticate data, dropped", "error", err)
			return
		}
		userId, role, name := authMsg.UserId, authMsg.UserRole, ""
		if c.hub.cfg.AuthConfig.JWTSecret != "" {
			// identity comes from the session token, the claimed fields are
			// only trusted in secretless dev setups
			claims, err := auth.VerifySessionToken(c.hub.cfg, authMsg.Token)
			if err != nil {
				globals.AppLogger.Warn("could not verify session token, dropped", "error", err)
				return
			}
			userId, role, name = claims.Subject, claims.Role, claims.Name
		}
		if userId == "" {
			return
		}
		if role == "" {
			role = types.RoleClient
		}
		c.hub.Authenticate(c, userId, role, name, authMsg.ProjectIds)
		c.sendEvent(types.EventAuthenticated, types.AuthenticatedPayload{Success: true})

	case types.MessageTypeJoinProject:
		projectId := ""
		if err := json.Unmarshal(message.Data, &projectId); err != nil {
			globals.AppLogger.Warn("could not unmarshal project id, dropped", "error", err)
			return
		}
		c.hub.Join(c, projectId)

	case types.MessageTypeLeaveProject:
		projectId := ""
		if err := json.Unmarshal(message.Data, &projectId); err != nil {
			globals.AppLogger.Warn("could not unmarshal project id, dropped", "error", err)
			return
		}
		c.hub.Leave(c, projectId)

	case types.MessageTypeTyping:
		typingMsgMap := make(map[string]interface{})
		if err := json.Unmarshal(message.Data, &typingMsgMap); err != nil {
			globals.AppLogger.Warn("could not unmarshal typing data, dropped", "error", err)
			return
		}
		typingMsg := types.TypingData{}
		if err := mapstructure.WeakDecode(typingMsgMap, &typingMsg); err != nil {
			globals.AppLogger.Warn("could not decode typing data, dropped", "error", err)
			return
		}
		if typingMsg.ProjectId == "" {
			return
		}
		c.hub.StartTyping(c, typingMsg.ProjectId, typingMsg.UserName)

	case types.MessageTypeStopTyping:
		stopMsgMap := make(map[string]interface{})
		if err := json.Unmarshal(message.Data, &stopMsgMap); err != nil {
			globals.AppLogger.Warn("could not unmarshal stop-typing data, dropped", "error", err)
			return
		}
		stopMsg := types.StopTypingData{}
		if err := mapstructure.WeakDecode(stopMsgMap, &stopMsg); err != nil {
			globals.AppLogger.Warn("could not decode stop-typing data, dropped", "error", err)
			return
		}
		if stopMsg.ProjectId == "" {
			return
		}
		c.hub.StopTyping(c, stopMsg.ProjectId)

	default:
		globals.AppLogger.Debug("unknown client event, dropped", "event", message.Event)
	}
}

// WriteLoop pumps messages from the hub to the websocket connection.
//
// A goroutine running WriteLoop is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
