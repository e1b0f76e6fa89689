package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/shanikumar001/project-gallery-backend/internal/models"
)

type FollowRequestResponse struct {
	ID         uuid.UUID  `json:"id"`
	Status     string     `json:"status"`
	FromUser   UserInfo   `json:"fromUser"`
	ToUserID   uuid.UUID  `json:"toUserId"`
	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

func NewFollowRequestResponse(r models.FollowRequest) FollowRequestResponse {
	return FollowRequestResponse{
		ID:         r.ID,
		Status:     string(r.Status),
		FromUser:   r.FromUser.Identity(),
		ToUserID:   r.ToUserID,
		CreatedAt:  r.CreatedAt,
		ResolvedAt: r.ResolvedAt,
	}
}
