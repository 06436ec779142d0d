package types

import (
	"time"

	"gorm.io/datatypes"
)

const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

// Message is one entry in a project conversation thread.
type Message struct {
	Id             string          `json:"id" gorm:"primaryKey"`
	ProjectId      string          `json:"project_id" gorm:"index"`
	SenderMemberId string          `json:"sender_member_id"`
	SenderRole     string          `json:"sender_role"`
	Message        string          `json:"message"`
	Attachments    JSONStringSlice `json:"attachments"`
	CreatedAt      time.Time       `json:"created_at"`
}

// FileRecord points at a blob in object storage, the blob name is the
// storage key, the url is what clients download.
type FileRecord struct {
	Id                 string    `json:"id" gorm:"primaryKey"`
	ProjectId          string    `json:"project_id" gorm:"index"`
	MilestoneId        string    `json:"milestone_id"`
	UploadedByMemberId string    `json:"uploaded_by_member_id"`
	FileUrl            string    `json:"file_url"`
	BlobName           string    `json:"blob_name"`
	FileName           string    `json:"file_name"`
	FileType           string    `json:"file_type"`
	FileSize           int64     `json:"file_size"`
	Label              string    `json:"label"`
	CreatedAt          time.Time `json:"created_at"`
}

type ActivityEntry struct {
	Id            string         `json:"id" gorm:"primaryKey"`
	ProjectId     string         `json:"project_id" gorm:"index"`
	EventType     string         `json:"event_type"`
	Description   string         `json:"description"`
	ActorMemberId string         `json:"actor_member_id"`
	Metadata      datatypes.JSON `json:"metadata"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Invoice amounts are integer cents.
type Invoice struct {
	Id            string     `json:"id" gorm:"primaryKey"`
	ProjectId     string     `json:"project_id" gorm:"index"`
	InvoiceNumber string     `json:"invoice_number" gorm:"uniqueIndex"`
	Amount        int64      `json:"amount"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"due_date"`
	PaidDate      *time.Time `json:"paid_date"`
	Url           string     `json:"url"`
	CreatedAt     time.Time  `json:"created_at"`
}

type TeamAssignment struct {
	Id        string    `json:"id" gorm:"primaryKey"`
	ProjectId string    `json:"project_id" gorm:"index"`
	UserId    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscription is an interest registration from the marketing site.
type Subscription struct {
	Id        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

var invoiceTransitions = map[string][]string{
	InvoiceStatusDraft:   {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:    {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusCancelled},
}

func ValidInvoiceTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, s := range invoiceTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
