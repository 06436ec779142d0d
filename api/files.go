package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hivecraft/portal/globals"
	"github.com/hivecraft/portal/types"
)

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	project, err := s.projectFor(identityFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	files, err := s.persister.GetFilesByProject(project.Id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// handleUploadFile accepts a multipart upload, stores the blob and then the
// file record. The blob is written first so a failed persist never leaves a
// dangling record.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	project, err := s.projectFor(identity, mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if s.blobs == nil {
		writeError(w, http.StatusNotImplemented, "file storage not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.ServerConfig.UploadLimit())
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	blobName := fmt.Sprintf("%s/%s%s", project.Id, uuid.NewString(), filepath.Ext(header.Filename))
	fileUrl, err := s.blobs.Upload(r.Context(), blobName, contentType, data)
	if err != nil {
		globals.AppLogger.Error("blob upload failed", "blob", blobName, "error", err)
		writeError(w, http.StatusBadGateway, "upload failed")
		return
	}
	record := types.FileRecord{
		Id:                 uuid.NewString(),
		ProjectId:          project.Id,
		MilestoneId:        r.FormValue("milestone_id"),
		UploadedByMemberId: identity.Id,
		FileUrl:            fileUrl,
		BlobName:           blobName,
		FileName:           header.Filename,
		FileType:           contentType,
		FileSize:           int64(len(data)),
		Label:              r.FormValue("label"),
		CreatedAt:          time.Now(),
	}
	if err := s.persister.StoreFile(record); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logActivity(project.Id, "file_uploaded", "file "+record.FileName+" uploaded", identity, nil)
	s.notifier.NotifyFileUpload(project.Id, &record)
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	vars := mux.Vars(r)
	project, err := s.projectFor(identity, vars["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	record := types.FileRecord{Id: vars["fileId"]}
	if err := s.persister.GetFile(&record); err != nil || record.ProjectId != project.Id {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err := s.persister.DeleteFile(&record); err != nil {
		writeStoreError(w, err)
		return
	}
	if s.blobs != nil && record.BlobName != "" {
		if err := s.blobs.Delete(r.Context(), record.BlobName); err != nil {
			globals.AppLogger.Error("could not delete blob", "blob", record.BlobName, "error", err)
		}
	}
	s.logActivity(project.Id, "file_deleted", "file "+record.FileName+" deleted", identity, nil)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
