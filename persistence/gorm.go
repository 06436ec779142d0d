package persistence

import (
	"errors"
	"fmt"
	"time"

	"github.com/hivecraft/portal/config"
	"github.com/hivecraft/portal/types"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormPersist struct {
	db *gorm.DB
}

func NewGormPersister(cfg *config.Config) (Persister, error) {
	db, err := setupGormDB(cfg)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, nil // no or wrong configuration, ignore the persister
	}
	p := GormPersist{db: db}
	return &p, nil
}

func setupGormDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.PersistenceConfig.DSN == "" {
		return nil, nil
	}
	var dial gorm.Dialector
	switch cfg.PersistenceConfig.Type {
	case "postgres":
		dial = postgres.Open(cfg.PersistenceConfig.DSN)

	case "sqlite":
		dial = sqlite.Open(cfg.PersistenceConfig.DSN)

	default:
		return nil, fmt.Errorf("invalid gorm configuration")
	}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	err = db.Migrator().AutoMigrate(
		&types.User{},
		&types.Project{},
		&types.Milestone{},
		&types.Task{},
		&types.Message{},
		&types.Preview{},
		&types.FileRecord{},
		&types.ActivityEntry{},
		&types.Invoice{},
		&types.TeamAssignment{},
		&types.Subscription{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func mapGormErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (p *GormPersist) StoreUser(user types.User) error {
	return p.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&user).Error
}

func (p *GormPersist) GetUser(user *types.User) error {
	return mapGormErr(p.db.First(user).Error)
}

func (p *GormPersist) GetUserByEmail(email string) (*types.User, error) {
	user := types.User{}
	err := p.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, mapGormErr(err)
	}
	return &user, nil
}

func (p *GormPersist) GetUsers() ([]*types.User, error) {
	users := make([]*types.User, 0)
	err := p.db.Find(&users).Error
	return users, err
}

func (p *GormPersist) DeleteUser(user *types.User) error {
	return p.db.Delete(user).Error
}

func (p *GormPersist) GetAllProjects() ([]*types.Project, error) {
	projects := make([]*types.Project, 0)
	err := p.db.Order("created_at DESC").Find(&projects).Error
	return projects, err
}

func (p *GormPersist) GetProjectsByClient(clientMemberId string) ([]*types.Project, error) {
	projects := make([]*types.Project, 0)
	err := p.db.Where("client_member_id = ?", clientMemberId).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

func (p *GormPersist) GetProject(project *types.Project) error {
	return mapGormErr(p.db.First(project).Error)
}

func (p *GormPersist) GetProjectForClient(id, clientMemberId string) (*types.Project, error) {
	project := types.Project{}
	err := p.db.Where("id = ? AND client_member_id = ?", id, clientMemberId).First(&project).Error
	if err != nil {
		return nil, mapGormErr(err)
	}
	return &project, nil
}

func (p *GormPersist) StoreProject(project types.Project) error {
	project.UpdatedAt = time.Now()
	return p.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&project).Error
}

func (p *GormPersist) DeleteProject(project *types.Project) error {
	return p.db.Delete(project).Error
}

func (p *GormPersist) GetMilestonesByProject(projectId string) ([]*types.Milestone, error) {
	milestones := make([]*types.Milestone, 0)
	err := p.db.Where("project_id = ?", projectId).Order("sort_order").Find(&milestones).Error
	return milestones, err
}

func (p *GormPersist) GetMilestone(milestone *types.Milestone) error {
	return mapGormErr(p.db.First(milestone).Error)
}

func (p *GormPersist) StoreMilestone(milestone types.Milestone) error {
	return p.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&milestone).Error
}

func (p *GormPersist) GetTasksByProject(projectId string) ([]*types.Task, error) {
	tasks := make([]*types.Task, 0)
	err := p.db.Where("project_id = ?", projectId).Find(&tasks).Error
	return tasks, err
}

func (p *GormPersist) GetTask(task *types.Task) error {
	return mapGormErr(p.db.First(task).Error)
}

func (p *GormPersist) StoreTask(task types.Task) error {
	return p.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&task).Error
}

func (p *GormPersist) GetMessagesByProject(projectId string) ([]*types.Message, error) {
	messages := make([]*types.Message, 0)
	err := p.db.Where("project_id = ?", projectId).Order("created_at").Find(&messages).Error
	return messages, err
}

func (p *GormPersist) StoreMessage(message types.Message) error {
	return p.db.Create(&message).Error
}

func (p *GormPersist) GetPreviewsByProject(projectId string) ([]*types.Preview, error) {
	previews := make([]*types.Preview, 0)
	err := p.db.Where("project_id = ?", projectId).Order("created_at DESC").Find(&previews).Error
	return previews, err
}

func (p *GormPersist) GetPreview(preview *types.Preview) error {
	return mapGormErr(p.db.First(preview).Error)
}

func (p *GormPersist) StorePreview(preview types.Preview) error {
	preview.UpdatedAt = time.Now()
	return p.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&preview).Error
}

func (p *GormPersist) GetFilesByProject(projectId string) ([]*types.FileRecord, error) {
	files := make([]*types.FileRecord, 0)
	err := p.db.Where("project_id = ?", projectId).Order("created_at DESC").Find(&files).Error
	return files, err
}

func (p *GormPersist) GetFile(file *types.FileRecord) error {
	return mapGormErr(p.db.First(file).Error)
}

func (p *GormPersist) StoreFile(file types.FileRecord) error {
	return p.db.Create(&file).Error
}

func (p *GormPersist) DeleteFile(file *types.FileRecord) error {
	return p.db.Delete(file).Error
}

func (p *GormPersist) GetActivityByProject(projectId string) ([]*types.ActivityEntry, error) {
	entries := make([]*types.ActivityEntry, 0)
	err := p.db.Where("project_id = ?", projectId).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (p *GormPersist) LogActivity(entry types.ActivityEntry) error {
	return p.db.Create(&entry).Error
}

func (p *GormPersist) GetInvoicesByProject(projectId string) ([]*types.Invoice, error) {
	invoices := make([]*types.Invoice, 0)
	err := p.db.Where("project_id = ?", projectId).Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}

func (p *GormPersist) GetInvoice(invoice *types.Invoice) error {
	return mapGormErr(p.db.First(invoice).Error)
}

func (p *GormPersist) GetInvoicesByStatus(status string) ([]*types.Invoice, error) {
	invoices := make([]*types.Invoice, 0)
	err := p.db.Where("status = ?", status).Find(&invoices).Error
	return invoices, err
}

func (p *GormPersist) StoreInvoice(invoice types.Invoice) error {
	return p.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&invoice).Error
}

func (p *GormPersist) GetTeamByProject(projectId string) ([]*types.TeamAssignment, error) {
	team := make([]*types.TeamAssignment, 0)
	err := p.db.Where("project_id = ?", projectId).Find(&team).Error
	return team, err
}

func (p *GormPersist) StoreTeamAssignment(assignment types.TeamAssignment) error {
	return p.db.Create(&assignment).Error
}

func (p *GormPersist) DeleteTeamAssignment(assignment *types.TeamAssignment) error {
	return p.db.Delete(assignment).Error
}

func (p *GormPersist) StoreSubscription(subscription types.Subscription) error {
	return p.db.Create(&subscription).Error
}

func (p *GormPersist) Close() error {
	return nil
}
