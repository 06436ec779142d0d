package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hivecraft/portal/globals"
	"github.com/hivecraft/portal/types"
	"gorm.io/datatypes"
)

// projectFor loads a project with the caller's visibility applied: staff see
// every project, clients only their own. A project outside the caller's
// scope reads as not found.
func (s *Server) projectFor(identity *Identity, projectId string) (*types.Project, error) {
	if identity.IsStaff() {
		project := types.Project{Id: projectId}
		if err := s.persister.GetProject(&project); err != nil {
			return nil, err
		}
		return &project, nil
	}
	return s.persister.GetProjectForClient(projectId, identity.Id)
}

// logActivity records an audit entry, best effort.
func (s *Server) logActivity(projectId, eventType, description string, identity *Identity, metadata interface{}) {
	entry := types.ActivityEntry{
		Id:            uuid.NewString(),
		ProjectId:     projectId,
		EventType:     eventType,
		Description:   description,
		ActorMemberId: identity.Id,
		CreatedAt:     time.Now(),
	}
	if metadata != nil {
		if raw, err := json.Marshal(metadata); err == nil {
			entry.Metadata = datatypes.JSON(raw)
		}
	}
	if err := s.persister.LogActivity(entry); err != nil {
		globals.AppLogger.Error("could not log activity", "project", projectId, "error", err)
	}
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	var projects []*types.Project
	var err error
	if identity.IsStaff() {
		projects, err = s.persister.GetAllProjects()
	} else {
		projects, err = s.persister.GetProjectsByClient(identity.Id)
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.projectFor(identityFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	in := types.Project{}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Title == "" || in.ClientMemberId == "" {
		writeError(w, http.StatusBadRequest, "title and client_member_id are required")
		return
	}
	in.Id = uuid.NewString()
	if in.Status == "" {
		in.Status = types.ProjectStatusDiscovery
	}
	in.CreatedAt = time.Now()
	in.UpdatedAt = in.CreatedAt
	if err := s.persister.StoreProject(in); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logActivity(in.Id, "project_created", "project created", identity, nil)
	s.notifier.NotifyProjectUpdate(in.Id, &in)
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	project, err := s.projectFor(identity, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	in := struct {
		Title            *string    `json:"title"`
		Status           *string    `json:"status"`
		StartDate        *time.Time `json:"start_date"`
		TargetLaunchDate *time.Time `json:"target_launch_date"`
		ProgressPercent  *int       `json:"progress_percent"`
		Summary          *string    `json:"summary"`
	}{}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Status != nil && !types.ValidProjectTransition(project.Status, *in.Status) {
		writeError(w, http.StatusUnprocessableEntity, "invalid status transition")
		return
	}
	if in.Title != nil {
		project.Title = *in.Title
	}
	if in.Status != nil {
		project.Status = *in.Status
	}
	if in.StartDate != nil {
		project.StartDate = in.StartDate
	}
	if in.TargetLaunchDate != nil {
		project.TargetLaunchDate = in.TargetLaunchDate
	}
	if in.ProgressPercent != nil {
		project.ProgressPercent = *in.ProgressPercent
	}
	if in.Summary != nil {
		project.Summary = *in.Summary
	}
	project.UpdatedAt = time.Now()
	if err := s.persister.StoreProject(*project); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logActivity(project.Id, "project_updated", "project updated", identity, in)
	s.notifier.NotifyProjectUpdate(project.Id, project)
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	project := types.Project{Id: mux.Vars(r)["id"]}
	if err := s.persister.GetProject(&project); err != nil {
		writeStoreError(w, err)
		return
	}
	if err := s.persister.DeleteProject(&project); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
