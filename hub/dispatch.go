package hub

import "github.com/hivecraft/portal/types"

// invoiceFilter narrows invoice notifications to the roles that handle
// billing, other staff in the project room are not interested.
const invoiceFilter = `Role in ["admin", "project_manager", "billing"] or Role == "client"`

// Notifier is the write surface the CRUD handlers use to tell subscribers
// that something happened. Every method is fire-and-forget: no ack, no
// retry, no persistence of missed events. A nil Notifier (transport not
// initialized) absorbs all calls, a notification failure must never fail
// the primary operation.
type Notifier struct {
	hub *Hub
}

func NewNotifier(h *Hub) *Notifier {
	return &Notifier{hub: h}
}

func (n *Notifier) dispatch(event *types.Event) {
	if n == nil || n.hub == nil {
		return
	}
	n.hub.Publish(event, nil)
}

// NotifyNewMessage informs the members of a project room about a new
// conversation message.
func (n *Notifier) NotifyNewMessage(projectId string, message *types.Message) {
	n.dispatch(types.NewMessageEvent(projectId, message))
}

// NotifyProjectUpdate informs the members of a project room about a change
// to the project itself. The update payload is opaque to the hub.
func (n *Notifier) NotifyProjectUpdate(projectId string, update interface{}) {
	n.dispatch(types.NewProjectUpdateEvent(projectId, update))
}

// NotifyMilestoneUpdate informs the members of a project room about a
// created or changed milestone.
func (n *Notifier) NotifyMilestoneUpdate(projectId string, milestone *types.Milestone) {
	n.dispatch(types.NewMilestoneUpdateEvent(projectId, milestone))
}

// NotifyFileUpload informs the members of a project room about an uploaded
// file.
func (n *Notifier) NotifyFileUpload(projectId string, file *types.FileRecord) {
	n.dispatch(types.NewFileUploadEvent(projectId, file))
}

// NotifyPreviewUpdate informs the members of a project room about a preview
// status change.
func (n *Notifier) NotifyPreviewUpdate(projectId string, preview *types.Preview) {
	n.dispatch(types.NewPreviewUpdateEvent(projectId, preview))
}

// NotifyInvoiceUpdate is a project update restricted to billing-relevant
// recipients.
func (n *Notifier) NotifyInvoiceUpdate(projectId string, invoice *types.Invoice) {
	event := types.NewProjectUpdateEvent(projectId, invoice)
	event.Filter = invoiceFilter
	n.dispatch(event)
}

// NotifyUser publishes an arbitrary payload to a user's personal room only,
// used for cross-project personal notifications.
func (n *Notifier) NotifyUser(userId string, notification interface{}) {
	n.dispatch(types.NewNotificationEvent(userId, notification))
}
