package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hivecraft/portal/types"
)

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	project, err := s.projectFor(identityFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	messages, err := s.persister.GetMessagesByProject(project.Id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	project, err := s.projectFor(identity, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	in := struct {
		Message     string   `json:"message"`
		Attachments []string `json:"attachments"`
	}{}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	message := types.Message{
		Id:             uuid.NewString(),
		ProjectId:      project.Id,
		SenderMemberId: identity.Id,
		SenderRole:     identity.Role,
		Message:        in.Message,
		Attachments:    in.Attachments,
		CreatedAt:      time.Now(),
	}
	if err := s.persister.StoreMessage(message); err != nil {
		writeStoreError(w, err)
		return
	}
	s.notifier.NotifyNewMessage(project.Id, &message)
	writeJSON(w, http.StatusCreated, message)
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	project, err := s.projectFor(identityFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	entries, err := s.persister.GetActivityByProject(project.Id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
