package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is a gallery entry. MediaURL is an opaque reference to media
// stored elsewhere; the backend never fetches it.
type Project struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Title         string    `gorm:"size:120;not null"`
	Description   string    `gorm:"size:2000"`
	LiveDemoURL   string
	CodeURL       string
	MediaURL      string
	MediaFilename string
	CreatedAt     time.Time `gorm:"not null;index"`

	User User `gorm:"foreignKey:UserID"`
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

type ReactionKind string

const (
	ReactionLike ReactionKind = "like"
	ReactionSave ReactionKind = "save"
)

// ProjectReaction is a like or a save. The composite key makes each one a
// set membership: a user likes or saves a project at most once.
type ProjectReaction struct {
	ProjectID uuid.UUID    `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Kind      ReactionKind `gorm:"type:varchar(8);primaryKey"`
	CreatedAt time.Time
}

type ProjectComment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	Text      string    `gorm:"size:1000;not null"`
	CreatedAt time.Time `gorm:"not null"`

	User User `gorm:"foreignKey:UserID"`
}

func (c *ProjectComment) BeforeCreate(*gorm.DB) error {
	if c.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}
