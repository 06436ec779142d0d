package client

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hivecraft/portal/config"
	"github.com/hivecraft/portal/hub"
	"github.com/hivecraft/portal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) (*hub.Hub, string) {
	t.Helper()
	h := hub.NewHub(&config.Config{})
	server := httptest.NewServer(hub.Handler(h))
	t.Cleanup(server.Close)
	return h, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url, userId, userName string, projectIds ...string) *Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, Options{
		URL:        url,
		UserId:     userId,
		UserRole:   types.RoleClient,
		UserName:   userName,
		ProjectIds: projectIds,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitFor(t *testing.T, ch chan json.RawMessage) json.RawMessage {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestDialAuthenticates(t *testing.T) {
	_, url := startServer(t)
	c := dial(t, url, "u1", "Alice")
	assert.True(t, c.IsConnected())
}

func TestMessageFanOut(t *testing.T) {
	h, url := startServer(t)
	a := dial(t, url, "u1", "Alice", "p1")
	b := dial(t, url, "u2", "Bob", "p1")

	gotA := make(chan json.RawMessage, 1)
	gotB := make(chan json.RawMessage, 1)
	a.On(types.EventNewMessage, func(data json.RawMessage) { gotA <- data })
	b.On(types.EventNewMessage, func(data json.RawMessage) { gotB <- data })

	notifier := hub.NewNotifier(h)
	notifier.NotifyNewMessage("p1", &types.Message{Id: "m1", ProjectId: "p1", Message: "hello"})

	for _, ch := range []chan json.RawMessage{gotA, gotB} {
		payload := types.MessagePayload{}
		require.NoError(t, json.Unmarshal(waitFor(t, ch), &payload))
		assert.Equal(t, "hello", payload.Message.Message)
	}
}

func TestTypingRoundTrip(t *testing.T) {
	_, url := startServer(t)
	a := dial(t, url, "u1", "Alice", "p1")
	b := dial(t, url, "u2", "Bob", "p1")

	typing := make(chan json.RawMessage, 1)
	stopped := make(chan json.RawMessage, 1)
	b.On(types.EventUserTyping, func(data json.RawMessage) { typing <- data })
	b.On(types.EventUserStoppedTyping, func(data json.RawMessage) { stopped <- data })

	require.NoError(t, a.SendTyping("p1"))
	payload := types.TypingPayload{}
	require.NoError(t, json.Unmarshal(waitFor(t, typing), &payload))
	assert.Equal(t, "u1", payload.UserId)
	assert.Equal(t, "Alice", payload.UserName)
	assert.Equal(t, []string{"Alice"}, b.TypingUsers("p1"))
	// the sender's own snapshot stays empty
	assert.Empty(t, a.TypingUsers("p1"))

	require.NoError(t, a.StopTyping("p1"))
	waitFor(t, stopped)
	assert.Empty(t, b.TypingUsers("p1"))
}

func TestJoinAndLeaveProject(t *testing.T) {
	h, url := startServer(t)
	a := dial(t, url, "u1", "Alice")

	got := make(chan json.RawMessage, 4)
	a.On(types.EventProjectUpdated, func(data json.RawMessage) { got <- data })

	require.NoError(t, a.JoinProject("p1"))
	notifier := hub.NewNotifier(h)
	// the join is applied by the server's read loop, poll until it lands
	require.Eventually(t, func() bool {
		notifier.NotifyProjectUpdate("p1", nil)
		select {
		case <-got:
			return true
		default:
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	// the leave is async as well, publish probes until none gets through
	require.NoError(t, a.LeaveProject("p1"))
	require.Eventually(t, func() bool {
		notifier.NotifyProjectUpdate("p1", nil)
		time.Sleep(50 * time.Millisecond)
		select {
		case <-got:
			return false
		default:
			return true
		}
	}, 5*time.Second, 50*time.Millisecond)
}

func TestDisconnectCleansUpServerState(t *testing.T) {
	h, url := startServer(t)
	a := dial(t, url, "u1", "Alice", "p1")
	b := dial(t, url, "u2", "Bob", "p1")

	stopped := make(chan json.RawMessage, 1)
	b.On(types.EventUserStoppedTyping, func(data json.RawMessage) { stopped <- data })

	require.NoError(t, a.SendTyping("p1"))
	require.Eventually(t, func() bool {
		return len(h.TypingUsers("p1")) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Close())

	// the server reaps the connection and tells the room the user stopped
	waitFor(t, stopped)
	assert.Empty(t, h.TypingUsers("p1"))
	require.Eventually(t, func() bool {
		return h.NoClients() == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestOffRemovesHandlers(t *testing.T) {
	h, url := startServer(t)
	a := dial(t, url, "u1", "Alice", "p1")

	got := make(chan json.RawMessage, 1)
	a.On(types.EventProjectUpdated, func(data json.RawMessage) { got <- data })
	a.Off(types.EventProjectUpdated)

	hub.NewNotifier(h).NotifyProjectUpdate("p1", nil)
	select {
	case <-got:
		t.Fatal("handler fired after Off")
	case <-time.After(200 * time.Millisecond):
	}
}
