package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is immutable after creation except for ReadAt, which only the
// recipient moves from nil to a timestamp.
type Message struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	FromUserID uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_pair"`
	ToUserID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_pair;index:idx_messages_unread"`
	Text       string     `gorm:"not null"`
	CreatedAt  time.Time  `gorm:"not null;index"`
	ReadAt     *time.Time `gorm:"index:idx_messages_unread"`
}

// BeforeCreate assigns a version 7 id. Those sort by creation order within
// the process, which breaks ties between messages sharing a timestamp.
func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}
