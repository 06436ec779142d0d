package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/hivecraft/portal/config"
	"github.com/hivecraft/portal/types"
	"github.com/tidwall/buntdb"
)

// BuntDBPersist is the file storage backed persister, mainly useful for
// single-binary deployments and tests. Child entities are keyed
// <kind>:<projectId>:<id> so a per-project listing is one prefix scan.
type BuntDBPersist struct {
	db *buntdb.DB
}

func NewBuntPersister(cfg *config.Config) (Persister, error) {
	if cfg.PersistenceConfig.DSN == "" {
		return nil, nil // no or wrong configuration, ignore the persister
	}
	db, err := buntdb.Open(cfg.PersistenceConfig.DSN)
	if err != nil {
		return nil, err
	}
	return &BuntDBPersist{db: db}, nil
}

func mapBuntErr(err error) error {
	if errors.Is(err, buntdb.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (p *BuntDBPersist) setJSON(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(raw), nil)
		return err
	})
}

func (p *BuntDBPersist) getJSON(key string, v interface{}) error {
	err := p.db.View(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(key)
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(raw), v)
	})
	return mapBuntErr(err)
}

func (p *BuntDBPersist) deleteKey(key string) error {
	err := p.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key)
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil
	}
	return err
}

func (p *BuntDBPersist) listPrefix(pattern string) ([]string, error) {
	values := make([]string, 0)
	err := p.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(pattern, func(key, value string) bool {
			values = append(values, value)
			return true
		})
	})
	return values, err
}

func (p *BuntDBPersist) StoreUser(user types.User) error {
	if user.Id == "" {
		return fmt.Errorf("no user id")
	}
	if err := p.setJSON("user:"+user.Id, user); err != nil {
		return err
	}
	return p.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set("idx:useremail:"+user.Email, user.Id, nil)
		return err
	})
}

func (p *BuntDBPersist) GetUser(user *types.User) error {
	if user.Id == "" {
		return fmt.Errorf("no user id")
	}
	return p.getJSON("user:"+user.Id, user)
}

func (p *BuntDBPersist) GetUserByEmail(email string) (*types.User, error) {
	var id string
	err := p.db.View(func(tx *buntdb.Tx) error {
		var err error
		id, err = tx.Get("idx:useremail:" + email)
		return err
	})
	if err != nil {
		return nil, mapBuntErr(err)
	}
	user := types.User{Id: id}
	if err := p.GetUser(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *BuntDBPersist) GetUsers() ([]*types.User, error) {
	raws, err := p.listPrefix("user:*")
	if err != nil {
		return nil, err
	}
	users := make([]*types.User, 0, len(raws))
	for _, raw := range raws {
		user := types.User{}
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, nil
}

func (p *BuntDBPersist) DeleteUser(user *types.User) error {
	if err := p.deleteKey("idx:useremail:" + user.Email); err != nil {
		return err
	}
	return p.deleteKey("user:" + user.Id)
}

func (p *BuntDBPersist) GetAllProjects() ([]*types.Project, error) {
	raws, err := p.listPrefix("project:*")
	if err != nil {
		return nil, err
	}
	projects := make([]*types.Project, 0, len(raws))
	for _, raw := range raws {
		project := types.Project{}
		if err := json.Unmarshal([]byte(raw), &project); err != nil {
			return nil, err
		}
		projects = append(projects, &project)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].CreatedAt.After(projects[j].CreatedAt) })
	return projects, nil
}

func (p *BuntDBPersist) GetProjectsByClient(clientMemberId string) ([]*types.Project, error) {
	all, err := p.GetAllProjects()
	if err != nil {
		return nil, err
	}
	projects := make([]*types.Project, 0)
	for _, project := range all {
		if project.ClientMemberId == clientMemberId {
			projects = append(projects, project)
		}
	}
	return projects, nil
}

func (p *BuntDBPersist) GetProject(project *types.Project) error {
	if project.Id == "" {
		return fmt.Errorf("no project id")
	}
	return p.getJSON("project:"+project.Id, project)
}

func (p *BuntDBPersist) GetProjectForClient(id, clientMemberId string) (*types.Project, error) {
	project := types.Project{Id: id}
	if err := p.GetProject(&project); err != nil {
		return nil, err
	}
	if project.ClientMemberId != clientMemberId {
		return nil, ErrNotFound
	}
	return &project, nil
}

func (p *BuntDBPersist) StoreProject(project types.Project) error {
	if project.Id == "" {
		return fmt.Errorf("no project id")
	}
	return p.setJSON("project:"+project.Id, project)
}

func (p *BuntDBPersist) DeleteProject(project *types.Project) error {
	return p.deleteKey("project:" + project.Id)
}

func childKey(kind, projectId, id string) string {
	return kind + ":" + projectId + ":" + id
}

func (p *BuntDBPersist) listChildren(kind, projectId string, unmarshal func(raw string) error) error {
	raws, err := p.listPrefix(kind + ":" + projectId + ":*")
	if err != nil {
		return err
	}
	for _, raw := range raws {
		if err := unmarshal(raw); err != nil {
			return err
		}
	}
	return nil
}

// getChild scans for a child entity when only its id is known.
func (p *BuntDBPersist) getChild(kind, id string, v interface{}) error {
	raw := ""
	err := p.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(kind+":*:"+id, func(key, value string) bool {
			raw = value
			return false
		})
	})
	if err != nil {
		return err
	}
	if raw == "" {
		return ErrNotFound
	}
	return json.Unmarshal([]byte(raw), v)
}

func (p *BuntDBPersist) GetMilestonesByProject(projectId string) ([]*types.Milestone, error) {
	milestones := make([]*types.Milestone, 0)
	err := p.listChildren("milestone", projectId, func(raw string) error {
		milestone := types.Milestone{}
		if err := json.Unmarshal([]byte(raw), &milestone); err != nil {
			return err
		}
		milestones = append(milestones, &milestone)
		return nil
	})
	sort.Slice(milestones, func(i, j int) bool { return milestones[i].Order < milestones[j].Order })
	return milestones, err
}

func (p *BuntDBPersist) GetMilestone(milestone *types.Milestone) error {
	if milestone.ProjectId != "" {
		return p.getJSON(childKey("milestone", milestone.ProjectId, milestone.Id), milestone)
	}
	return p.getChild("milestone", milestone.Id, milestone)
}

func (p *BuntDBPersist) StoreMilestone(milestone types.Milestone) error {
	return p.setJSON(childKey("milestone", milestone.ProjectId, milestone.Id), milestone)
}

func (p *BuntDBPersist) GetTasksByProject(projectId string) ([]*types.Task, error) {
	tasks := make([]*types.Task, 0)
	err := p.listChildren("task", projectId, func(raw string) error {
		task := types.Task{}
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			return err
		}
		tasks = append(tasks, &task)
		return nil
	})
	return tasks, err
}

func (p *BuntDBPersist) GetTask(task *types.Task) error {
	if task.ProjectId != "" {
		return p.getJSON(childKey("task", task.ProjectId, task.Id), task)
	}
	return p.getChild("task", task.Id, task)
}

func (p *BuntDBPersist) StoreTask(task types.Task) error {
	return p.setJSON(childKey("task", task.ProjectId, task.Id), task)
}

func (p *BuntDBPersist) GetMessagesByProject(projectId string) ([]*types.Message, error) {
	messages := make([]*types.Message, 0)
	err := p.listChildren("message", projectId, func(raw string) error {
		message := types.Message{}
		if err := json.Unmarshal([]byte(raw), &message); err != nil {
			return err
		}
		messages = append(messages, &message)
		return nil
	})
	sort.Slice(messages, func(i, j int) bool { return messages[i].CreatedAt.Before(messages[j].CreatedAt) })
	return messages, err
}

func (p *BuntDBPersist) StoreMessage(message types.Message) error {
	return p.setJSON(childKey("message", message.ProjectId, message.Id), message)
}

func (p *BuntDBPersist) GetPreviewsByProject(projectId string) ([]*types.Preview, error) {
	previews := make([]*types.Preview, 0)
	err := p.listChildren("preview", projectId, func(raw string) error {
		preview := types.Preview{}
		if err := json.Unmarshal([]byte(raw), &preview); err != nil {
			return err
		}
		previews = append(previews, &preview)
		return nil
	})
	sort.Slice(previews, func(i, j int) bool { return previews[i].CreatedAt.After(previews[j].CreatedAt) })
	return previews, err
}

func (p *BuntDBPersist) GetPreview(preview *types.Preview) error {
	if preview.ProjectId != "" {
		return p.getJSON(childKey("preview", preview.ProjectId, preview.Id), preview)
	}
	return p.getChild("preview", preview.Id, preview)
}

func (p *BuntDBPersist) StorePreview(preview types.Preview) error {
	return p.setJSON(childKey("preview", preview.ProjectId, preview.Id), preview)
}

func (p *BuntDBPersist) GetFilesByProject(projectId string) ([]*types.FileRecord, error) {
	files := make([]*types.FileRecord, 0)
	err := p.listChildren("file", projectId, func(raw string) error {
		file := types.FileRecord{}
		if err := json.Unmarshal([]byte(raw), &file); err != nil {
			return err
		}
		files = append(files, &file)
		return nil
	})
	sort.Slice(files, func(i, j int) bool { return files[i].CreatedAt.After(files[j].CreatedAt) })
	return files, err
}

func (p *BuntDBPersist) GetFile(file *types.FileRecord) error {
	if file.ProjectId != "" {
		return p.getJSON(childKey("file", file.ProjectId, file.Id), file)
	}
	return p.getChild("file", file.Id, file)
}

func (p *BuntDBPersist) StoreFile(file types.FileRecord) error {
	return p.setJSON(childKey("file", file.ProjectId, file.Id), file)
}

func (p *BuntDBPersist) DeleteFile(file *types.FileRecord) error {
	return p.deleteKey(childKey("file", file.ProjectId, file.Id))
}

func (p *BuntDBPersist) GetActivityByProject(projectId string) ([]*types.ActivityEntry, error) {
	entries := make([]*types.ActivityEntry, 0)
	err := p.listChildren("activity", projectId, func(raw string) error {
		entry := types.ActivityEntry{}
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return err
		}
		entries = append(entries, &entry)
		return nil
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, err
}

func (p *BuntDBPersist) LogActivity(entry types.ActivityEntry) error {
	return p.setJSON(childKey("activity", entry.ProjectId, entry.Id), entry)
}

func (p *BuntDBPersist) GetInvoicesByProject(projectId string) ([]*types.Invoice, error) {
	invoices := make([]*types.Invoice, 0)
	err := p.listChildren("invoice", projectId, func(raw string) error {
		invoice := types.Invoice{}
		if err := json.Unmarshal([]byte(raw), &invoice); err != nil {
			return err
		}
		invoices = append(invoices, &invoice)
		return nil
	})
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].CreatedAt.After(invoices[j].CreatedAt) })
	return invoices, err
}

func (p *BuntDBPersist) GetInvoice(invoice *types.Invoice) error {
	if invoice.ProjectId != "" {
		return p.getJSON(childKey("invoice", invoice.ProjectId, invoice.Id), invoice)
	}
	return p.getChild("invoice", invoice.Id, invoice)
}

func (p *BuntDBPersist) GetInvoicesByStatus(status string) ([]*types.Invoice, error) {
	raws, err := p.listPrefix("invoice:*")
	if err != nil {
		return nil, err
	}
	invoices := make([]*types.Invoice, 0)
	for _, raw := range raws {
		invoice := types.Invoice{}
		if err := json.Unmarshal([]byte(raw), &invoice); err != nil {
			return nil, err
		}
		if invoice.Status == status {
			invoices = append(invoices, &invoice)
		}
	}
	return invoices, nil
}

func (p *BuntDBPersist) StoreInvoice(invoice types.Invoice) error {
	return p.setJSON(childKey("invoice", invoice.ProjectId, invoice.Id), invoice)
}

func (p *BuntDBPersist) GetTeamByProject(projectId string) ([]*types.TeamAssignment, error) {
	team := make([]*types.TeamAssignment, 0)
	err := p.listChildren("team", projectId, func(raw string) error {
		assignment := types.TeamAssignment{}
		if err := json.Unmarshal([]byte(raw), &assignment); err != nil {
			return err
		}
		team = append(team, &assignment)
		return nil
	})
	return team, err
}

func (p *BuntDBPersist) StoreTeamAssignment(assignment types.TeamAssignment) error {
	return p.setJSON(childKey("team", assignment.ProjectId, assignment.Id), assignment)
}

func (p *BuntDBPersist) DeleteTeamAssignment(assignment *types.TeamAssignment) error {
	return p.deleteKey(childKey("team", assignment.ProjectId, assignment.Id))
}

func (p *BuntDBPersist) StoreSubscription(subscription types.Subscription) error {
	return p.setJSON("subscription:"+subscription.Id, subscription)
}

func (p *BuntDBPersist) Close() error {
	return p.db.Close()
}
