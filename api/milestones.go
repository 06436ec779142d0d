package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hivecraft/portal/types"
)

func (s *Server) handleListMilestones(w http.ResponseWriter, r *http.Request) {
	project, err := s.projectFor(identityFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	milestones, err := s.persister.GetMilestonesByProject(project.Id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, milestones)
}

func (s *Server) handleCreateMilestone(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	project, err := s.projectFor(identity, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	in := types.Milestone{}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	in.Id = uuid.NewString()
	in.ProjectId = project.Id
	if in.Status == "" {
		in.Status = types.MilestoneStatusPending
	}
	in.CreatedAt = time.Now()
	if err := s.persister.StoreMilestone(in); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logActivity(project.Id, "milestone_created", "milestone "+in.Name+" created", identity, nil)
	s.notifier.NotifyMilestoneUpdate(project.Id, &in)
	writeJSON(w, http.StatusCreated, in)
}

// handleUpdateMilestone lets staff edit milestones freely. Clients may only
// approve a milestone that is awaiting their approval.
func (s *Server) handleUpdateMilestone(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	vars := mux.Vars(r)
	project, err := s.projectFor(identity, vars["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	milestone := types.Milestone{Id: vars["milestoneId"]}
	if err := s.persister.GetMilestone(&milestone); err != nil || milestone.ProjectId != project.Id {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	in := struct {
		Name        *string    `json:"name"`
		Description *string    `json:"description"`
		Status      *string    `json:"status"`
		DueDate     *time.Time `json:"due_date"`
		Order       *int       `json:"order"`
	}{}
	if !decodeBody(w, r, &in) {
		return
	}
	if !identity.IsStaff() {
		if in.Status == nil || *in.Status != types.MilestoneStatusApproved ||
			milestone.Status != types.MilestoneStatusAwaitingApproval {
			writeError(w, http.StatusForbidden, "clients may only approve milestones awaiting approval")
			return
		}
		milestone.Status = types.MilestoneStatusApproved
	} else {
		if in.Name != nil {
			milestone.Name = *in.Name
		}
		if in.Description != nil {
			milestone.Description = *in.Description
		}
		if in.Status != nil {
			milestone.Status = *in.Status
		}
		if in.DueDate != nil {
			milestone.DueDate = in.DueDate
		}
		if in.Order != nil {
			milestone.Order = *in.Order
		}
	}
	if err := s.persister.StoreMilestone(milestone); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logActivity(project.Id, "milestone_updated", "milestone "+milestone.Name+" updated", identity, in)
	s.notifier.NotifyMilestoneUpdate(project.Id, &milestone)
	writeJSON(w, http.StatusOK, milestone)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	project, err := s.projectFor(identityFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	tasks, err := s.persister.GetTasksByProject(project.Id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	project, err := s.projectFor(identity, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	in := types.Task{}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	in.Id = uuid.NewString()
	in.ProjectId = project.Id
	if in.Status == "" {
		in.Status = types.TaskStatusPending
	}
	in.CreatedAt = time.Now()
	if err := s.persister.StoreTask(in); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logActivity(project.Id, "task_created", "task "+in.Title+" created", identity, nil)
	s.notifier.NotifyProjectUpdate(project.Id, &in)
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	vars := mux.Vars(r)
	project, err := s.projectFor(identity, vars["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	task := types.Task{Id: vars["taskId"]}
	if err := s.persister.GetTask(&task); err != nil || task.ProjectId != project.Id {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	in := struct {
		Title          *string    `json:"title"`
		Description    *string    `json:"description"`
		Status         *string    `json:"status"`
		AssigneeRole   *string    `json:"assignee_role"`
		AssigneeUserId *string    `json:"assignee_user_id"`
		DueDate        *time.Time `json:"due_date"`
	}{}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Title != nil {
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Status != nil {
		task.Status = *in.Status
	}
	if in.AssigneeRole != nil {
		task.AssigneeRole = *in.AssigneeRole
	}
	if in.AssigneeUserId != nil {
		task.AssigneeUserId = *in.AssigneeUserId
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
	}
	if err := s.persister.StoreTask(task); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logActivity(project.Id, "task_updated", "task "+task.Title+" updated", identity, in)
	s.notifier.NotifyProjectUpdate(project.Id, &task)
	writeJSON(w, http.StatusOK, task)
}
