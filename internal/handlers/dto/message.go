package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/shanikumar001/project-gallery-backend/internal/services"
)

type SendMessageRequest struct {
	ToUserID string `json:"toUserId" binding:"required"`
	Text     string `json:"text"`
}

type MarkReadRequest struct {
	With string `json:"with" binding:"required"`
}

type MessageResponse struct {
	ID         uuid.UUID  `json:"id"`
	FromUserID uuid.UUID  `json:"fromUserId"`
	ToUserID   uuid.UUID  `json:"toUserId"`
	Text       string     `json:"text"`
	CreatedAt  time.Time  `json:"createdAt"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	IsMe       bool       `json:"isMe"`
}

func NewMessageResponse(v services.MessageView) MessageResponse {
	return MessageResponse{
		ID:         v.ID,
		FromUserID: v.FromUserID,
		ToUserID:   v.ToUserID,
		Text:       v.Text,
		CreatedAt:  v.CreatedAt,
		ReadAt:     v.ReadAt,
		IsMe:       v.IsMe,
	}
}

// ConversationResponse flattens the counterpart identity so the client can
// read id/name/profilePhoto directly.
type ConversationResponse struct {
	UserInfo
	LastMessage MessageResponse `json:"lastMessage"`
	UnreadCount int64           `json:"unreadCount"`
}

func NewConversationResponse(c services.Conversation) ConversationResponse {
	return ConversationResponse{
		UserInfo:    c.Counterpart.Identity(),
		LastMessage: NewMessageResponse(c.LastMessage),
		UnreadCount: c.UnreadCount,
	}
}
