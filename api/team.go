package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hivecraft/portal/types"
)

func (s *Server) handleListTeam(w http.ResponseWriter, r *http.Request) {
	project, err := s.projectFor(identityFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	team, err := s.persister.GetTeamByProject(project.Id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) handleAssignTeamMember(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	project := types.Project{Id: mux.Vars(r)["id"]}
	if err := s.persister.GetProject(&project); err != nil {
		writeStoreError(w, err)
		return
	}
	in := types.TeamAssignment{}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.UserId == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	member := types.User{Id: in.UserId}
	if err := s.persister.GetUser(&member); err != nil {
		writeError(w, http.StatusBadRequest, "no such user")
		return
	}
	in.Id = uuid.NewString()
	in.ProjectId = project.Id
	if in.Role == "" {
		in.Role = member.Role
	}
	in.CreatedAt = time.Now()
	if err := s.persister.StoreTeamAssignment(in); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logActivity(project.Id, "team_assigned", member.Name+" assigned to team", identity, nil)
	s.notifier.NotifyProjectUpdate(project.Id, &in)
	s.notifier.NotifyUser(in.UserId, map[string]string{
		"type":      "team_assignment",
		"projectId": project.Id,
		"title":     project.Title,
	})
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) handleRemoveTeamMember(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	vars := mux.Vars(r)
	project := types.Project{Id: vars["id"]}
	if err := s.persister.GetProject(&project); err != nil {
		writeStoreError(w, err)
		return
	}
	assignment := types.TeamAssignment{Id: vars["assignmentId"], ProjectId: project.Id}
	if err := s.persister.DeleteTeamAssignment(&assignment); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logActivity(project.Id, "team_removed", "team member removed", identity, nil)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
