package types

import (
	"fmt"
	"time"

	"github.com/mitchellh/hashstructure/v2"
)

// Server to client event names.
const (
	EventAuthenticated     = "authenticated"
	EventNewMessage        = "new-message"
	EventProjectUpdated    = "project-updated"
	EventMilestoneUpdated  = "milestone-updated"
	EventFileUploaded      = "file-uploaded"
	EventPreviewUpdated    = "preview-updated"
	EventNotification      = "notification"
	EventUserTyping        = "user-typing"
	EventUserStoppedTyping = "user-stopped-typing"
)

// UserRoom is the personal room key of a user, every authenticated
// connection is a member of exactly one.
func UserRoom(userId string) string {
	return "user:" + userId
}

// ProjectRoom is the multicast room key of a project.
func ProjectRoom(projectId string) string {
	return "project:" + projectId
}

// Event is a fire-and-forget notification describing a state change that
// already happened in durable storage. It exists only for the duration of a
// dispatch call.
type Event struct {
	Id      string
	Name    string
	Room    string
	Created time.Time
	// Filter is an optional expr expression evaluated against each candidate
	// recipient, see the filter package for the environment.
	Filter  string
	Payload interface{}
}

// CreateId derives a stable id from the event contents.
func (e *Event) CreateId() error {
	hash, err := hashstructure.Hash(e.Payload, hashstructure.FormatV2, nil)
	if err != nil {
		return err
	}
	e.Id = fmt.Sprintf("%s-%016x", e.Name, hash)
	return nil
}

type MessagePayload struct {
	ProjectId string   `json:"projectId"`
	Message   *Message `json:"message"`
}

type ProjectUpdatePayload struct {
	ProjectId string      `json:"projectId"`
	Update    interface{} `json:"update"`
}

type MilestonePayload struct {
	ProjectId string     `json:"projectId"`
	Milestone *Milestone `json:"milestone"`
}

type FilePayload struct {
	ProjectId string      `json:"projectId"`
	File      *FileRecord `json:"file"`
}

type PreviewPayload struct {
	ProjectId string   `json:"projectId"`
	Preview   *Preview `json:"preview"`
}

type TypingPayload struct {
	UserId    string `json:"userId"`
	UserName  string `json:"userName"`
	ProjectId string `json:"projectId"`
}

type StoppedTypingPayload struct {
	UserId    string `json:"userId"`
	ProjectId string `json:"projectId"`
}

type AuthenticatedPayload struct {
	Success bool `json:"success"`
}

func newEvent(name, room string, payload interface{}) *Event {
	e := &Event{
		Name:    name,
		Room:    room,
		Created: time.Now(),
		Payload: payload,
	}
	_ = e.CreateId()
	return e
}

func NewMessageEvent(projectId string, message *Message) *Event {
	return newEvent(EventNewMessage, ProjectRoom(projectId), MessagePayload{ProjectId: projectId, Message: message})
}

func NewProjectUpdateEvent(projectId string, update interface{}) *Event {
	return newEvent(EventProjectUpdated, ProjectRoom(projectId), ProjectUpdatePayload{ProjectId: projectId, Update: update})
}

func NewMilestoneUpdateEvent(projectId string, milestone *Milestone) *Event {
	return newEvent(EventMilestoneUpdated, ProjectRoom(projectId), MilestonePayload{ProjectId: projectId, Milestone: milestone})
}

func NewFileUploadEvent(projectId string, file *FileRecord) *Event {
	return newEvent(EventFileUploaded, ProjectRoom(projectId), FilePayload{ProjectId: projectId, File: file})
}

func NewPreviewUpdateEvent(projectId string, preview *Preview) *Event {
	return newEvent(EventPreviewUpdated, ProjectRoom(projectId), PreviewPayload{ProjectId: projectId, Preview: preview})
}

func NewNotificationEvent(userId string, notification interface{}) *Event {
	return newEvent(EventNotification, UserRoom(userId), notification)
}

func NewTypingEvent(projectId, userId, userName string) *Event {
	return newEvent(EventUserTyping, ProjectRoom(projectId), TypingPayload{UserId: userId, UserName: userName, ProjectId: projectId})
}

func NewStoppedTypingEvent(projectId, userId string) *Event {
	return newEvent(EventUserStoppedTyping, ProjectRoom(projectId), StoppedTypingPayload{UserId: userId, ProjectId: projectId})
}
