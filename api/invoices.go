package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hivecraft/portal/globals"
	"github.com/hivecraft/portal/types"
)

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	project, err := s.projectFor(identityFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err)
		return
	}
	invoices, err := s.persister.GetInvoicesByProject(project.Id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	project := types.Project{Id: mux.Vars(r)["id"]}
	if err := s.persister.GetProject(&project); err != nil {
		writeStoreError(w, err)
		return
	}
	in := types.Invoice{}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.InvoiceNumber == "" || in.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "invoice_number and a positive amount are required")
		return
	}
	in.Id = uuid.NewString()
	in.ProjectId = project.Id
	if in.Status == "" {
		in.Status = types.InvoiceStatusDraft
	}
	in.CreatedAt = time.Now()
	if err := s.persister.StoreInvoice(in); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logActivity(project.Id, "invoice_created", "invoice "+in.InvoiceNumber+" created", identity, nil)
	if in.Status == types.InvoiceStatusSent {
		s.notifyInvoiceSent(&project, &in)
	}
	s.notifier.NotifyInvoiceUpdate(project.Id, &in)
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	vars := mux.Vars(r)
	project := types.Project{Id: vars["id"]}
	if err := s.persister.GetProject(&project); err != nil {
		writeStoreError(w, err)
		return
	}
	invoice := types.Invoice{Id: vars["invoiceId"]}
	if err := s.persister.GetInvoice(&invoice); err != nil || invoice.ProjectId != project.Id {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	in := struct {
		Status  *string    `json:"status"`
		DueDate *time.Time `json:"due_date"`
		Url     *string    `json:"url"`
	}{}
	if !decodeBody(w, r, &in) {
		return
	}
	sent := false
	if in.Status != nil {
		if !types.ValidInvoiceTransition(invoice.Status, *in.Status) {
			writeError(w, http.StatusUnprocessableEntity, "invalid status transition")
			return
		}
		sent = invoice.Status != types.InvoiceStatusSent && *in.Status == types.InvoiceStatusSent
		invoice.Status = *in.Status
		if invoice.Status == types.InvoiceStatusPaid && invoice.PaidDate == nil {
			now := time.Now()
			invoice.PaidDate = &now
		}
	}
	if in.DueDate != nil {
		invoice.DueDate = in.DueDate
	}
	if in.Url != nil {
		invoice.Url = *in.Url
	}
	if err := s.persister.StoreInvoice(invoice); err != nil {
		writeStoreError(w, err)
		return
	}
	s.logActivity(project.Id, "invoice_updated", "invoice "+invoice.InvoiceNumber+" updated", identity, in)
	if sent {
		s.notifyInvoiceSent(&project, &invoice)
	}
	s.notifier.NotifyInvoiceUpdate(project.Id, &invoice)
	writeJSON(w, http.StatusOK, invoice)
}

// notifyInvoiceSent emails the project client when an invoice goes out.
func (s *Server) notifyInvoiceSent(project *types.Project, invoice *types.Invoice) {
	client := types.User{Id: project.ClientMemberId}
	if err := s.persister.GetUser(&client); err != nil {
		globals.AppLogger.Warn("no client user for invoice notice", "project", project.Id, "error", err)
		return
	}
	s.mailer.SendInvoiceNotice(client.Email, invoice)
}
