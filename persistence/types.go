package persistence

import (
	"errors"
	"fmt"

	"github.com/hivecraft/portal/config"
	"github.com/hivecraft/portal/types"
)

// ErrNotFound is returned when a looked-up entity does not exist,
// regardless of the backend.
var ErrNotFound = errors.New("not found")

// Persister is the durable storage behind the portal. The realtime layer
// never writes here, it only relays changes the API handlers have already
// committed.
type Persister interface {
	StoreUser(types.User) error
	GetUser(*types.User) error
	GetUserByEmail(email string) (*types.User, error)
	GetUsers() ([]*types.User, error)
	DeleteUser(*types.User) error

	GetAllProjects() ([]*types.Project, error)
	GetProjectsByClient(clientMemberId string) ([]*types.Project, error)
	GetProject(*types.Project) error
	GetProjectForClient(id, clientMemberId string) (*types.Project, error)
	StoreProject(types.Project) error
	DeleteProject(*types.Project) error

	GetMilestonesByProject(projectId string) ([]*types.Milestone, error)
	GetMilestone(*types.Milestone) error
	StoreMilestone(types.Milestone) error

	GetTasksByProject(projectId string) ([]*types.Task, error)
	GetTask(*types.Task) error
	StoreTask(types.Task) error

	GetMessagesByProject(projectId string) ([]*types.Message, error)
	StoreMessage(types.Message) error

	GetPreviewsByProject(projectId string) ([]*types.Preview, error)
	GetPreview(*types.Preview) error
	StorePreview(types.Preview) error

	GetFilesByProject(projectId string) ([]*types.FileRecord, error)
	GetFile(*types.FileRecord) error
	StoreFile(types.FileRecord) error
	DeleteFile(*types.FileRecord) error

	GetActivityByProject(projectId string) ([]*types.ActivityEntry, error)
	LogActivity(types.ActivityEntry) error

	GetInvoicesByProject(projectId string) ([]*types.Invoice, error)
	GetInvoice(*types.Invoice) error
	GetInvoicesByStatus(status string) ([]*types.Invoice, error)
	StoreInvoice(types.Invoice) error

	GetTeamByProject(projectId string) ([]*types.TeamAssignment, error)
	StoreTeamAssignment(types.TeamAssignment) error
	DeleteTeamAssignment(*types.TeamAssignment) error

	StoreSubscription(types.Subscription) error

	Close() error
}

// NewPersister creates the persister selected in the configuration.
func NewPersister(cfg *config.Config) (Persister, error) {
	switch cfg.PersistenceConfig.Type {
	case "buntdb":
		return NewBuntPersister(cfg)
	case "postgres", "sqlite":
		return NewGormPersister(cfg)
	case "":
		return nil, nil // no persistence configured
	}
	return nil, fmt.Errorf("unknown persistence type %q", cfg.PersistenceConfig.Type)
}
