// Package client is the Go counterpart of the portal's realtime browser
// hook: it dials the websocket endpoint, authenticates, exposes On/Off event
// subscriptions and keeps a typing-user snapshot per project room.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hivecraft/portal/globals"
	"github.com/hivecraft/portal/types"
)

const writeWait = 10 * time.Second

// Handler receives the raw payload of a subscribed event.
type Handler func(data json.RawMessage)

// Options identify the connecting member. When Token is set the server
// verifies it and derives the identity from its claims, the explicit fields
// are only trusted on servers running without a session secret.
type Options struct {
	URL        string
	Token      string
	UserId     string
	UserRole   string
	UserName   string
	ProjectIds []string
}

// Conn is a live portal connection. All methods are safe for concurrent
// use. A Conn is single-shot: once closed (locally or by the server) it
// cannot be redialed, create a new one instead.
type Conn struct {
	opts Options
	conn *websocket.Conn

	writeMu sync.Mutex

	mu            sync.RWMutex
	handlers      map[string][]Handler
	typing        map[string]map[string]string
	authenticated bool
	closed        bool

	authed chan struct{}
	done   chan struct{}
}

// Dial connects, authenticates and starts the read loop. It returns once
// the server has acknowledged the authentication or the context expires.
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	wsConn, _, err := websocket.DefaultDialer.DialContext(ctx, opts.URL, nil)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		opts:     opts,
		conn:     wsConn,
		handlers: make(map[string][]Handler),
		typing:   make(map[string]map[string]string),
		authed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	err = c.Emit(types.MessageTypeAuthenticate, types.AuthenticateData{
		UserId:     opts.UserId,
		UserRole:   opts.UserRole,
		Token:      opts.Token,
		ProjectIds: opts.ProjectIds,
	})
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	select {
	case <-c.authed:
		return c, nil
	case <-c.done:
		return nil, fmt.Errorf("connection closed before authentication")
	case <-ctx.Done():
		_ = c.Close()
		return nil, ctx.Err()
	}
}

// On registers a handler for a server event. Multiple handlers per event are
// allowed and run in registration order on the read loop goroutine.
func (c *Conn) On(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

// Off removes all handlers for an event.
func (c *Conn) Off(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, event)
}

// Emit sends a raw client event. Most callers want the typed helpers below.
func (c *Conn) Emit(event string, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(types.WebsocketMessage{Event: event, Data: raw})
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// JoinProject subscribes this connection to a project room.
func (c *Conn) JoinProject(projectId string) error {
	return c.Emit(types.MessageTypeJoinProject, projectId)
}

// LeaveProject unsubscribes this connection from a project room.
func (c *Conn) LeaveProject(projectId string) error {
	c.mu.Lock()
	delete(c.typing, projectId)
	c.mu.Unlock()
	return c.Emit(types.MessageTypeLeaveProject, projectId)
}

// SendTyping announces typing activity to the other room members.
func (c *Conn) SendTyping(projectId string) error {
	return c.Emit(types.MessageTypeTyping, types.TypingData{ProjectId: projectId, UserName: c.opts.UserName})
}

// StopTyping clears this member's typing announcement.
func (c *Conn) StopTyping(projectId string) error {
	return c.Emit(types.MessageTypeStopTyping, types.StopTypingData{ProjectId: projectId})
}

// TypingUsers returns the names of the members currently typing in a project
// room, never including this member.
func (c *Conn) TypingUsers(projectId string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.typing[projectId]))
	for _, name := range c.typing[projectId] {
		names = append(names, name)
	}
	return names
}

// IsConnected reports whether the connection is up and authenticated.
func (c *Conn) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authenticated && !c.closed
}

// Close tears down the connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Conn) readLoop() {
	defer func() {
		_ = c.Close()
		close(c.done)
	}()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		msg := types.WebsocketMessage{}
		if err := json.Unmarshal(raw, &msg); err != nil {
			globals.AppLogger.Warn("dropping malformed frame", "error", err)
			continue
		}
		c.track(&msg)
		c.mu.RLock()
		handlers := append([]Handler(nil), c.handlers[msg.Event]...)
		c.mu.RUnlock()
		for _, h := range handlers {
			h(msg.Data)
		}
	}
}

// track maintains the internal state fed by server events: the
// authentication ack and the typing snapshot.
func (c *Conn) track(msg *types.WebsocketMessage) {
	switch msg.Event {
	case types.EventAuthenticated:
		ack := types.AuthenticatedPayload{}
		if err := json.Unmarshal(msg.Data, &ack); err != nil || !ack.Success {
			return
		}
		c.mu.Lock()
		first := !c.authenticated
		c.authenticated = true
		c.mu.Unlock()
		if first {
			close(c.authed)
		}
	case types.EventUserTyping:
		p := types.TypingPayload{}
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		c.mu.Lock()
		if c.typing[p.ProjectId] == nil {
			c.typing[p.ProjectId] = make(map[string]string)
		}
		c.typing[p.ProjectId][p.UserId] = p.UserName
		c.mu.Unlock()
	case types.EventUserStoppedTyping:
		p := types.StoppedTypingPayload{}
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		c.mu.Lock()
		delete(c.typing[p.ProjectId], p.UserId)
		c.mu.Unlock()
	}
}
