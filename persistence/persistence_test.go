package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hivecraft/portal/config"
	"github.com/hivecraft/portal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuntPersister(t *testing.T) Persister {
	t.Helper()
	cfg := &config.Config{PersistenceConfig: config.PersistenceConfig{Type: "buntdb", DSN: ":memory:"}}
	p, err := NewPersister(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func newGormPersister(t *testing.T) Persister {
	t.Helper()
	cfg := &config.Config{PersistenceConfig: config.PersistenceConfig{Type: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db")}}
	p, err := NewPersister(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func runPersisterTests(t *testing.T, newPersister func(t *testing.T) Persister) {
	t.Run("users", func(t *testing.T) {
		p := newPersister(t)
		user := types.User{Id: "u1", Email: "alice@example.com", Name: "Alice", Role: types.RoleClient}
		require.NoError(t, p.StoreUser(user))

		got := types.User{Id: "u1"}
		require.NoError(t, p.GetUser(&got))
		assert.Equal(t, "Alice", got.Name)

		byEmail, err := p.GetUserByEmail("alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", byEmail.Id)

		_, err = p.GetUserByEmail("nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)

		user.Role = types.RoleAdmin
		require.NoError(t, p.StoreUser(user))
		got = types.User{Id: "u1"}
		require.NoError(t, p.GetUser(&got))
		assert.Equal(t, types.RoleAdmin, got.Role)

		users, err := p.GetUsers()
		require.NoError(t, err)
		assert.Len(t, users, 1)

		require.NoError(t, p.DeleteUser(&user))
		assert.ErrorIs(t, p.GetUser(&types.User{Id: "u1"}), ErrNotFound)
	})

	t.Run("project client scoping", func(t *testing.T) {
		p := newPersister(t)
		require.NoError(t, p.StoreProject(types.Project{Id: "p1", ClientMemberId: "c1", Title: "Site", Status: types.ProjectStatusDiscovery, CreatedAt: time.Now()}))
		require.NoError(t, p.StoreProject(types.Project{Id: "p2", ClientMemberId: "c2", Title: "Shop", Status: types.ProjectStatusBuild, CreatedAt: time.Now()}))

		all, err := p.GetAllProjects()
		require.NoError(t, err)
		assert.Len(t, all, 2)

		mine, err := p.GetProjectsByClient("c1")
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, "p1", mine[0].Id)

		own, err := p.GetProjectForClient("p1", "c1")
		require.NoError(t, err)
		assert.Equal(t, "Site", own.Title)

		// another client's project reads as not found
		_, err = p.GetProjectForClient("p2", "c1")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, p.DeleteProject(&types.Project{Id: "p1"}))
		assert.ErrorIs(t, p.GetProject(&types.Project{Id: "p1"}), ErrNotFound)
	})

	t.Run("milestones ordered", func(t *testing.T) {
		p := newPersister(t)
		require.NoError(t, p.StoreMilestone(types.Milestone{Id: "m2", ProjectId: "p1", Name: "Build", Order: 2}))
		require.NoError(t, p.StoreMilestone(types.Milestone{Id: "m1", ProjectId: "p1", Name: "Design", Order: 1}))
		require.NoError(t, p.StoreMilestone(types.Milestone{Id: "m3", ProjectId: "p2", Name: "Other", Order: 1}))

		milestones, err := p.GetMilestonesByProject("p1")
		require.NoError(t, err)
		require.Len(t, milestones, 2)
		assert.Equal(t, "Design", milestones[0].Name)
		assert.Equal(t, "Build", milestones[1].Name)

		milestone := types.Milestone{Id: "m1"}
		require.NoError(t, p.GetMilestone(&milestone))
		assert.Equal(t, "p1", milestone.ProjectId)
	})

	t.Run("messages in thread order", func(t *testing.T) {
		p := newPersister(t)
		base := time.Now().Add(-time.Hour)
		require.NoError(t, p.StoreMessage(types.Message{Id: "m2", ProjectId: "p1", Message: "second", CreatedAt: base.Add(time.Minute)}))
		require.NoError(t, p.StoreMessage(types.Message{Id: "m1", ProjectId: "p1", Message: "first", Attachments: []string{"a.png"}, CreatedAt: base}))

		messages, err := p.GetMessagesByProject("p1")
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "first", messages[0].Message)
		assert.Equal(t, []string{"a.png"}, []string(messages[0].Attachments))
	})

	t.Run("invoices by status", func(t *testing.T) {
		p := newPersister(t)
		due := time.Now().Add(-24 * time.Hour)
		require.NoError(t, p.StoreInvoice(types.Invoice{Id: "i1", ProjectId: "p1", InvoiceNumber: "INV-1", Amount: 10000, Status: types.InvoiceStatusSent, DueDate: &due}))
		require.NoError(t, p.StoreInvoice(types.Invoice{Id: "i2", ProjectId: "p1", InvoiceNumber: "INV-2", Amount: 20000, Status: types.InvoiceStatusPaid}))

		sent, err := p.GetInvoicesByStatus(types.InvoiceStatusSent)
		require.NoError(t, err)
		require.Len(t, sent, 1)
		assert.Equal(t, "INV-1", sent[0].InvoiceNumber)

		invoices, err := p.GetInvoicesByProject("p1")
		require.NoError(t, err)
		assert.Len(t, invoices, 2)
	})

	t.Run("team assignments", func(t *testing.T) {
		p := newPersister(t)
		assignment := types.TeamAssignment{Id: "t1", ProjectId: "p1", UserId: "u1", Role: types.RoleDesigner}
		require.NoError(t, p.StoreTeamAssignment(assignment))

		team, err := p.GetTeamByProject("p1")
		require.NoError(t, err)
		require.Len(t, team, 1)

		require.NoError(t, p.DeleteTeamAssignment(&assignment))
		team, err = p.GetTeamByProject("p1")
		require.NoError(t, err)
		assert.Empty(t, team)
	})

	t.Run("files and activity", func(t *testing.T) {
		p := newPersister(t)
		file := types.FileRecord{Id: "f1", ProjectId: "p1", FileName: "logo.png", BlobName: "p1/f1.png"}
		require.NoError(t, p.StoreFile(file))
		got := types.FileRecord{Id: "f1", ProjectId: "p1"}
		require.NoError(t, p.GetFile(&got))
		assert.Equal(t, "logo.png", got.FileName)
		require.NoError(t, p.DeleteFile(&file))

		require.NoError(t, p.LogActivity(types.ActivityEntry{Id: "a1", ProjectId: "p1", EventType: "file_uploaded"}))
		entries, err := p.GetActivityByProject("p1")
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestBuntPersister(t *testing.T) {
	runPersisterTests(t, newBuntPersister)
}

func TestGormPersister(t *testing.T) {
	runPersisterTests(t, newGormPersister)
}

func TestNewPersisterUnknownType(t *testing.T) {
	_, err := NewPersister(&config.Config{PersistenceConfig: config.PersistenceConfig{Type: "voodoo", DSN: "x"}})
	assert.Error(t, err)
}
