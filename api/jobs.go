package api

import (
	"time"

	"github.com/hivecraft/portal/globals"
	"github.com/hivecraft/portal/types"
	"github.com/robfig/cron/v3"
)

// StartJobs schedules the recurring maintenance jobs and returns the cron
// runner so the caller can stop it on shutdown.
func (s *Server) StartJobs() *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("@daily", s.markOverdueInvoices)
	if err != nil {
		globals.AppLogger.Error("could not schedule invoice job", "error", err)
	}
	c.Start()
	return c
}

// markOverdueInvoices moves sent invoices past their due date to overdue and
// tells the billing-relevant room members.
func (s *Server) markOverdueInvoices() {
	invoices, err := s.persister.GetInvoicesByStatus(types.InvoiceStatusSent)
	if err != nil {
		globals.AppLogger.Error("could not list sent invoices", "error", err)
		return
	}
	now := time.Now()
	for _, invoice := range invoices {
		if invoice.DueDate == nil || !invoice.DueDate.Before(now) {
			continue
		}
		invoice.Status = types.InvoiceStatusOverdue
		if err := s.persister.StoreInvoice(*invoice); err != nil {
			globals.AppLogger.Error("could not mark invoice overdue", "invoice", invoice.Id, "error", err)
			continue
		}
		globals.AppLogger.Info("invoice overdue", "invoice", invoice.InvoiceNumber, "project", invoice.ProjectId)
		s.notifier.NotifyInvoiceUpdate(invoice.ProjectId, invoice)
	}
}
