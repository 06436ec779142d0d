package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hivecraft/portal/types"
)

func (s *Server) handleListPreviews(w http.ResponseWriter, r *http.Request) {
	project, err := s.projectFor(identityFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	previews, err := s.persister.GetPreviewsByProject(project.Id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, previews)
}

func (s *Server) handleCreatePreview(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	project, err := s.projectFor(identity, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	in := types.Preview{}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Url == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	in.Id = uuid.NewString()
	in.ProjectId = project.Id
	if in.Status == "" {
		in.Status = types.PreviewStatusDraft
	}
	in.CreatedAt = time.Now()
	in.UpdatedAt = in.CreatedAt
	if err := s.persister.StorePreview(in); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logActivity(project.Id, "preview_created", "preview "+in.Label+" created", identity, nil)
	s.notifier.NotifyPreviewUpdate(project.Id, &in)
	writeJSON(w, http.StatusCreated, in)
}

// handleUpdatePreview lets staff edit previews. Clients review them: they
// may approve, reject or request a revision on a preview that is ready, and
// attach feedback while doing so.
func (s *Server) handleUpdatePreview(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	vars := mux.Vars(r)
	project, err := s.projectFor(identity, vars["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	preview := types.Preview{Id: vars["previewId"]}
	if err := s.persister.GetPreview(&preview); err != nil || preview.ProjectId != project.Id {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	in := struct {
		Url      *string `json:"url"`
		Label    *string `json:"label"`
		Notes    *string `json:"notes"`
		Version  *string `json:"version"`
		Status   *string `json:"status"`
		Feedback *string `json:"feedback"`
	}{}
	if !decodeBody(w, r, &in) {
		return
	}
	if !identity.IsStaff() {
		if preview.Status != types.PreviewStatusReady || in.Status == nil {
			writeError(w, http.StatusForbidden, "clients may only review previews that are ready")
			return
		}
		switch *in.Status {
		case types.PreviewStatusApproved, types.PreviewStatusRejected, types.PreviewStatusRevisionRequested:
		default:
			writeError(w, http.StatusUnprocessableEntity, "invalid review status")
			return
		}
		preview.Status = *in.Status
		if in.Feedback != nil {
			preview.Feedback = *in.Feedback
		}
	} else {
		if in.Url != nil {
			preview.Url = *in.Url
		}
		if in.Label != nil {
			preview.Label = *in.Label
		}
		if in.Notes != nil {
			preview.Notes = *in.Notes
		}
		if in.Version != nil {
			preview.Version = *in.Version
		}
		if in.Status != nil {
			preview.Status = *in.Status
		}
		if in.Feedback != nil {
			preview.Feedback = *in.Feedback
		}
	}
	preview.UpdatedAt = time.Now()
	if err := s.persister.StorePreview(preview); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logActivity(project.Id, "preview_updated", "preview "+preview.Label+" updated", identity, in)
	s.notifier.NotifyPreviewUpdate(project.Id, &preview)
	writeJSON(w, http.StatusOK, preview)
}
