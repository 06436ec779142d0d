package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hivecraft/portal/config"
	"github.com/hivecraft/portal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(&config.Config{})
}

func newTestClient(t *testing.T, h *Hub) *Client {
	t.Helper()
	c := NewClient(h, nil)
	h.Register(c)
	return c
}

func authenticate(h *Hub, c *Client, userId, role string, projectIds ...string) {
	h.Authenticate(c, userId, role, userId, projectIds)
}

// recvEvent pops the next frame off a client's send channel. Publishing is
// synchronous, so anything dispatched before the call is already buffered.
func recvEvent(t *testing.T, c *Client) *types.WebsocketMessage {
	t.Helper()
	select {
	case raw, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		msg := types.WebsocketMessage{}
		require.NoError(t, json.Unmarshal(raw, &msg))
		return &msg
	default:
		t.Fatal("expected an event, got none")
		return nil
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("expected no event, got %s", string(raw))
	default:
	}
}

func TestAuthenticateJoinsPersonalRoom(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h)
	authenticate(h, a, "u1", types.RoleClient)

	n := NewNotifier(h)
	n.NotifyUser("u1", map[string]string{"type": "test"})

	msg := recvEvent(t, a)
	assert.Equal(t, types.EventNotification, msg.Event)
}

func TestPersonalRoomIsolation(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h)
	b := newTestClient(t, h)
	authenticate(h, a, "u1", types.RoleClient)
	authenticate(h, b, "u2", types.RoleClient)

	NewNotifier(h).NotifyUser("u1", map[string]string{"type": "test"})

	recvEvent(t, a)
	assertNoEvent(t, b)
}

func TestJoinRequiresAuthentication(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h)

	h.Join(a, "p1")
	h.Publish(types.NewProjectUpdateEvent("p1", nil), nil)

	assertNoEvent(t, a)
}

func TestJoinLeaveIdempotent(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h)
	authenticate(h, a, "u1", types.RoleClient)

	h.Join(a, "p1")
	h.Join(a, "p1")
	h.Publish(types.NewProjectUpdateEvent("p1", nil), nil)
	recvEvent(t, a)
	assertNoEvent(t, a) // joined twice, delivered once

	h.Leave(a, "p1")
	h.Leave(a, "p1")
	h.Publish(types.NewProjectUpdateEvent("p1", nil), nil)
	assertNoEvent(t, a)
}

func TestFanOutToAllRoomMembers(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h)
	b := newTestClient(t, h)
	c := newTestClient(t, h)
	other := newTestClient(t, h)
	authenticate(h, a, "u1", types.RoleClient, "p1")
	authenticate(h, b, "u2", types.RoleAdmin, "p1")
	authenticate(h, c, "u3", types.RoleDesigner, "p1")
	authenticate(h, other, "u4", types.RoleClient, "p2")

	message := &types.Message{Id: "m1", ProjectId: "p1", Message: "hello"}
	NewNotifier(h).NotifyNewMessage("p1", message)

	for _, member := range []*Client{a, b, c} {
		msg := recvEvent(t, member)
		assert.Equal(t, types.EventNewMessage, msg.Event)
		payload := types.MessagePayload{}
		require.NoError(t, json.Unmarshal(msg.Data, &payload))
		assert.Equal(t, "p1", payload.ProjectId)
		assert.Equal(t, "hello", payload.Message.Message)
	}
	assertNoEvent(t, other)
}

func TestTypingExcludesSender(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h)
	b := newTestClient(t, h)
	authenticate(h, a, "u1", types.RoleClient, "p1")
	authenticate(h, b, "u2", types.RoleAdmin, "p1")

	h.StartTyping(a, "p1", "Alice")

	msg := recvEvent(t, b)
	assert.Equal(t, types.EventUserTyping, msg.Event)
	payload := types.TypingPayload{}
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "u1", payload.UserId)
	assert.Equal(t, "Alice", payload.UserName)
	assertNoEvent(t, a)

	assert.Equal(t, map[string]string{"u1": "Alice"}, h.TypingUsers("p1"))
}

func TestTypingRequiresRoomMembership(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h)
	b := newTestClient(t, h)
	authenticate(h, a, "u1", types.RoleClient)
	authenticate(h, b, "u2", types.RoleAdmin, "p1")

	h.StartTyping(a, "p1", "Alice")

	assertNoEvent(t, b)
	assert.Empty(t, h.TypingUsers("p1"))
}

func TestStopTyping(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h)
	b := newTestClient(t, h)
	authenticate(h, a, "u1", types.RoleClient, "p1")
	authenticate(h, b, "u2", types.RoleAdmin, "p1")

	h.StartTyping(a, "p1", "Alice")
	recvEvent(t, b)
	h.StopTyping(a, "p1")

	msg := recvEvent(t, b)
	assert.Equal(t, types.EventUserStoppedTyping, msg.Event)
	assert.Empty(t, h.TypingUsers("p1"))

	// a second stop is a no-op, nothing further is broadcast
	h.StopTyping(a, "p1")
	assertNoEvent(t, b)
}

func TestForgetCleansUpEverything(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h)
	b := newTestClient(t, h)
	authenticate(h, a, "u1", types.RoleClient, "p1")
	authenticate(h, b, "u2", types.RoleAdmin, "p1")
	h.StartTyping(a, "p1", "Alice")
	recvEvent(t, b)

	h.Forget(a)

	// the remaining member is told that the departed user stopped typing
	msg := recvEvent(t, b)
	assert.Equal(t, types.EventUserStoppedTyping, msg.Event)
	assert.Empty(t, h.TypingUsers("p1"))
	assert.Equal(t, 1, h.NoClients())

	// the departed connection is out of all rooms and its channel is closed
	h.Publish(types.NewProjectUpdateEvent("p1", nil), nil)
	recvEvent(t, b)
	_, ok := <-a.Send
	assert.False(t, ok)

	// a second Forget is a no-op
	h.Forget(a)
	assert.Equal(t, 1, h.NoClients())
}

func TestReauthenticateLastWriteWins(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h)
	authenticate(h, a, "u1", types.RoleClient, "p1")
	authenticate(h, a, "u2", types.RoleAdmin, "p2")

	h.Publish(types.NewProjectUpdateEvent("p1", nil), nil)
	assertNoEvent(t, a)
	NewNotifier(h).NotifyUser("u1", nil)
	assertNoEvent(t, a)

	h.Publish(types.NewProjectUpdateEvent("p2", nil), nil)
	recvEvent(t, a)
	NewNotifier(h).NotifyUser("u2", nil)
	recvEvent(t, a)
}

func TestRecipientFilter(t *testing.T) {
	h := newTestHub()
	billing := newTestClient(t, h)
	designer := newTestClient(t, h)
	client := newTestClient(t, h)
	authenticate(h, billing, "u1", types.RoleBilling, "p1")
	authenticate(h, designer, "u2", types.RoleDesigner, "p1")
	authenticate(h, client, "u3", types.RoleClient, "p1")

	NewNotifier(h).NotifyInvoiceUpdate("p1", &types.Invoice{Id: "i1", ProjectId: "p1"})

	recvEvent(t, billing)
	recvEvent(t, client)
	assertNoEvent(t, designer)
}

func TestBrokenFilterDropsEvent(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h)
	authenticate(h, a, "u1", types.RoleClient, "p1")

	event := types.NewProjectUpdateEvent("p1", nil)
	event.Filter = "NoSuchField == 1"
	h.Publish(event, nil)

	assertNoEvent(t, a)
}

func TestReapTyping(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h)
	b := newTestClient(t, h)
	authenticate(h, a, "u1", types.RoleClient, "p1")
	authenticate(h, b, "u2", types.RoleAdmin, "p1")
	h.StartTyping(a, "p1", "Alice")
	recvEvent(t, b)

	// age the entry past the TTL, then run the reaper directly
	h.Lock()
	h.typing["p1"]["u1"] = typingEntry{userName: "Alice", since: time.Now().Add(-time.Hour)}
	h.Unlock()
	h.reapTyping()

	msg := recvEvent(t, b)
	assert.Equal(t, types.EventUserStoppedTyping, msg.Event)
	assert.Empty(t, h.TypingUsers("p1"))
}

func TestSlowConsumerDoesNotBlockPublish(t *testing.T) {
	h := newTestHub()
	a := newTestClient(t, h)
	authenticate(h, a, "u1", types.RoleClient, "p1")

	event := types.NewProjectUpdateEvent("p1", nil)
	for i := 0; i < sendChannelSize+10; i++ {
		h.Publish(event, nil)
	}
	// excess events were dropped, the buffer holds the rest
	assert.Equal(t, sendChannelSize, len(a.Send))
}

func TestNilNotifierAbsorbsCalls(t *testing.T) {
	var n *Notifier
	n.NotifyNewMessage("p1", &types.Message{})
	n.NotifyProjectUpdate("p1", nil)
	n.NotifyUser("u1", nil)

	n = NewNotifier(nil)
	n.NotifyNewMessage("p1", &types.Message{})
}
