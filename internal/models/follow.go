package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// FollowEdge is an approved follower -> followee relation.
type FollowEdge struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	FollowerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair;index"`
	FolloweeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair;index"`
	CreatedAt  time.Time

	Follower User `gorm:"foreignKey:FollowerID"`
	Followee User `gorm:"foreignKey:FolloweeID"`
}

func (FollowEdge) TableName() string { return "follow_edges" }

func (e *FollowEdge) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// FollowRequest waits for the target's decision. Only one pending request
// may exist per ordered pair; resolved rows are kept for history.
type FollowRequest struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey"`
	FromUserID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_pending_pair,where:status = 'pending'"`
	ToUserID   uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:idx_pending_pair,where:status = 'pending'"`
	Status     RequestStatus `gorm:"type:varchar(16);not null;default:'pending';index"`
	CreatedAt  time.Time
	ResolvedAt *time.Time

	FromUser User `gorm:"foreignKey:FromUserID"`
}

func (FollowRequest) TableName() string { return "follow_requests" }

func (r *FollowRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
