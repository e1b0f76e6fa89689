package services

import "github.com/google/uuid"

const (
	EventMessage        = "message"
	EventUnreadCount    = "unread_count"
	EventFollowRequest  = "follow_request"
	EventFollowAccepted = "follow_accepted"
	EventProjectComment = "project_comment"
)

// Notifier pushes best-effort events to a user's live connections.
type Notifier interface {
	Notify(userID uuid.UUID, event string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Notify(uuid.UUID, string, interface{}) {}
