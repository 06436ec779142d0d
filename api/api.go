package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hivecraft/portal/auth"
	"github.com/hivecraft/portal/blob"
	"github.com/hivecraft/portal/config"
	"github.com/hivecraft/portal/hub"
	"github.com/hivecraft/portal/mail"
	"github.com/hivecraft/portal/persistence"
)

// Server wires the CRUD handlers to their collaborators. The notifier is
// called after a persistence commit succeeds, never before, and a nil
// notifier/mailer/blob store just disables the respective side channel.
type Server struct {
	cfg       *config.Config
	persister persistence.Persister
	notifier  *hub.Notifier
	roles     *auth.RoleCache
	blobs     blob.Store
	mailer    *mail.Sender
}

func NewServer(cfg *config.Config, persister persistence.Persister, notifier *hub.Notifier, blobs blob.Store, mailer *mail.Sender) (*Server, error) {
	roles, err := auth.NewRoleCache(persister)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:       cfg,
		persister: persister,
		notifier:  notifier,
		roles:     roles,
		blobs:     blobs,
		mailer:    mailer,
	}, nil
}

// Routes mounts all API routes below /api.
func (s *Server) Routes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/oidc", s.handleOIDCLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", s.requireAuth(s.handleMe)).Methods(http.MethodGet)

	api.HandleFunc("/subscriptions", s.handleCreateSubscription).Methods(http.MethodPost)

	api.HandleFunc("/projects", s.requireAuth(s.handleListProjects)).Methods(http.MethodGet)
	api.HandleFunc("/projects", s.requireRole(s.handleCreateProject, "admin", "project_manager")).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", s.requireAuth(s.handleGetProject)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}", s.requireRole(s.handleUpdateProject, "admin", "project_manager")).Methods(http.MethodPatch)
	api.HandleFunc("/projects/{id}", s.requireRole(s.handleDeleteProject, "admin")).Methods(http.MethodDelete)

	api.HandleFunc("/projects/{id}/milestones", s.requireAuth(s.handleListMilestones)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/milestones", s.requireStaff(s.handleCreateMilestone)).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/milestones/{milestoneId}", s.requireAuth(s.handleUpdateMilestone)).Methods(http.MethodPatch)

	api.HandleFunc("/projects/{id}/tasks", s.requireAuth(s.handleListTasks)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/tasks", s.requireStaff(s.handleCreateTask)).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/tasks/{taskId}", s.requireStaff(s.handleUpdateTask)).Methods(http.MethodPatch)

	api.HandleFunc("/projects/{id}/messages", s.requireAuth(s.handleListMessages)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/messages", s.requireAuth(s.handleCreateMessage)).Methods(http.MethodPost)

	api.HandleFunc("/projects/{id}/previews", s.requireAuth(s.handleListPreviews)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/previews", s.requireStaff(s.handleCreatePreview)).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/previews/{previewId}", s.requireAuth(s.handleUpdatePreview)).Methods(http.MethodPatch)

	api.HandleFunc("/projects/{id}/files", s.requireAuth(s.handleListFiles)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/files", s.requireAuth(s.handleUploadFile)).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/files/{fileId}", s.requireStaff(s.handleDeleteFile)).Methods(http.MethodDelete)

	api.HandleFunc("/projects/{id}/activity", s.requireAuth(s.handleListActivity)).Methods(http.MethodGet)

	api.HandleFunc("/projects/{id}/invoices", s.requireAuth(s.handleListInvoices)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/invoices", s.requireRole(s.handleCreateInvoice, "admin", "billing")).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/invoices/{invoiceId}", s.requireRole(s.handleUpdateInvoice, "admin", "billing")).Methods(http.MethodPatch)

	api.HandleFunc("/projects/{id}/team", s.requireAuth(s.handleListTeam)).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/team", s.requireRole(s.handleAssignTeamMember, "admin", "project_manager")).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/team/{assignmentId}", s.requireRole(s.handleRemoveTeamMember, "admin", "project_manager")).Methods(http.MethodDelete)

	api.HandleFunc("/users", s.requireRole(s.handleListUsers, "admin")).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/role", s.requireRole(s.handleSetRole, "admin")).Methods(http.MethodPut)
}
