package types

import "time"

// Project types and tiers as offered on the marketing site.
const (
	ProjectTypeManagedWebsite = "managed_website"
	ProjectTypeCustomWebsite  = "custom_website"
	ProjectTypeOnlineStore    = "online_store"
	ProjectTypeWebApp         = "web_app"

	ProjectTierLaunch = "launch"
	ProjectTierGrowth = "growth"
	ProjectTierScale  = "scale"
)

const (
	ProjectStatusDiscovery = "discovery"
	ProjectStatusDesign    = "design"
	ProjectStatusBuild     = "build"
	ProjectStatusLaunch    = "launch"
	ProjectStatusCare      = "care"
	ProjectStatusCompleted = "completed"
	ProjectStatusOnHold    = "on_hold"
)

const (
	MilestoneStatusPending          = "pending"
	MilestoneStatusInProgress       = "in_progress"
	MilestoneStatusAwaitingApproval = "awaiting_approval"
	MilestoneStatusApproved         = "approved"
	MilestoneStatusCompleted        = "completed"
)

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusBlocked    = "blocked"
)

const (
	PreviewStatusDraft             = "draft"
	PreviewStatusReady             = "ready"
	PreviewStatusApproved          = "approved"
	PreviewStatusRejected          = "rejected"
	PreviewStatusRevisionRequested = "revision_requested"
)

type Project struct {
	Id               string     `json:"id" gorm:"primaryKey"`
	ClientMemberId   string     `json:"client_member_id" gorm:"index"`
	Title            string     `json:"title"`
	Type             string     `json:"type"`
	Tier             string     `json:"tier"`
	Status           string     `json:"status"`
	StartDate        *time.Time `json:"start_date"`
	TargetLaunchDate *time.Time `json:"target_launch_date"`
	ProgressPercent  int        `json:"progress_percent"`
	Summary          string     `json:"summary"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type Milestone struct {
	Id               string     `json:"id" gorm:"primaryKey"`
	ProjectId        string     `json:"project_id" gorm:"index"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Status           string     `json:"status"`
	DueDate          *time.Time `json:"due_date"`
	Order            int        `json:"order" gorm:"column:sort_order"`
	ApprovalRequired bool       `json:"approval_required"`
	CreatedAt        time.Time  `json:"created_at"`
}

type Task struct {
	Id             string     `json:"id" gorm:"primaryKey"`
	ProjectId      string     `json:"project_id" gorm:"index"`
	MilestoneId    string     `json:"milestone_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	AssigneeRole   string     `json:"assignee_role"`
	AssigneeUserId string     `json:"assignee_user_id"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"due_date"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Preview struct {
	Id        string    `json:"id" gorm:"primaryKey"`
	ProjectId string    `json:"project_id" gorm:"index"`
	Url       string    `json:"url"`
	Label     string    `json:"label"`
	Notes     string    `json:"notes"`
	Version   string    `json:"version"`
	Status    string    `json:"status"`
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var projectTransitions = map[string][]string{
	ProjectStatusDiscovery: {ProjectStatusDesign, ProjectStatusOnHold},
	ProjectStatusDesign:    {ProjectStatusBuild, ProjectStatusOnHold},
	ProjectStatusBuild:     {ProjectStatusLaunch, ProjectStatusOnHold},
	ProjectStatusLaunch:    {ProjectStatusCare, ProjectStatusCompleted, ProjectStatusOnHold},
	ProjectStatusCare:      {ProjectStatusCompleted, ProjectStatusOnHold},
	ProjectStatusOnHold:    {ProjectStatusDiscovery, ProjectStatusDesign, ProjectStatusBuild, ProjectStatusLaunch, ProjectStatusCare},
}

// ValidProjectTransition reports whether a project may move from one status
// to another. Same-status updates are always allowed.
func ValidProjectTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, s := range projectTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
