package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomKeys(t *testing.T) {
	assert.Equal(t, "user:u1", UserRoom("u1"))
	assert.Equal(t, "project:p1", ProjectRoom("p1"))
}

func TestStaffRoles(t *testing.T) {
	assert.False(t, IsStaffRole(RoleClient))
	for _, role := range []string{RoleAdmin, RoleProjectManager, RoleDesigner, RoleDeveloper, RoleEditor, RoleBilling} {
		assert.True(t, IsStaffRole(role), role)
	}
	assert.False(t, IsStaffRole("superuser"))
	assert.True(t, ValidRole(RoleClient))
	assert.False(t, ValidRole("superuser"))
}

func TestProjectTransitions(t *testing.T) {
	assert.True(t, ValidProjectTransition(ProjectStatusDiscovery, ProjectStatusDesign))
	assert.True(t, ValidProjectTransition(ProjectStatusBuild, ProjectStatusBuild))
	assert.True(t, ValidProjectTransition(ProjectStatusOnHold, ProjectStatusBuild))
	assert.False(t, ValidProjectTransition(ProjectStatusDiscovery, ProjectStatusLaunch))
	assert.False(t, ValidProjectTransition(ProjectStatusCompleted, ProjectStatusDiscovery))
}

func TestInvoiceTransitions(t *testing.T) {
	assert.True(t, ValidInvoiceTransition(InvoiceStatusDraft, InvoiceStatusSent))
	assert.True(t, ValidInvoiceTransition(InvoiceStatusSent, InvoiceStatusPaid))
	assert.True(t, ValidInvoiceTransition(InvoiceStatusOverdue, InvoiceStatusPaid))
	assert.False(t, ValidInvoiceTransition(InvoiceStatusDraft, InvoiceStatusPaid))
	assert.False(t, ValidInvoiceTransition(InvoiceStatusPaid, InvoiceStatusSent))
}

func TestEventWireFormat(t *testing.T) {
	event := NewTypingEvent("p1", "u1", "Alice")
	raw, err := event.Wire()
	require.NoError(t, err)

	msg := WebsocketMessage{}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, EventUserTyping, msg.Event)

	payload := TypingPayload{}
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "u1", payload.UserId)
	assert.Equal(t, "Alice", payload.UserName)
	assert.Equal(t, "p1", payload.ProjectId)
}

func TestEventIdIsStable(t *testing.T) {
	a := NewMessageEvent("p1", &Message{Id: "m1", Message: "hi"})
	b := NewMessageEvent("p1", &Message{Id: "m1", Message: "hi"})
	c := NewMessageEvent("p1", &Message{Id: "m2", Message: "hi"})

	assert.NotEmpty(t, a.Id)
	assert.Equal(t, a.Id, b.Id)
	assert.NotEqual(t, a.Id, c.Id)
}

func TestEventRooms(t *testing.T) {
	assert.Equal(t, ProjectRoom("p1"), NewMessageEvent("p1", &Message{}).Room)
	assert.Equal(t, UserRoom("u1"), NewNotificationEvent("u1", nil).Room)
}
