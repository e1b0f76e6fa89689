package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shanikumar001/project-gallery-backend/internal/models"
)

func (d *Database) CreateProject(ctx context.Context, p *models.Project) error {
	return d.db.WithContext(ctx).Create(p).Error
}

func (d *Database) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	if err := d.db.WithContext(ctx).Preload("User").First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns projects newest first. uuid.Nil lists every owner.
func (d *Database) ListProjects(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	q := d.db.WithContext(ctx).Preload("User")
	if ownerID != uuid.Nil {
		q = q.Where("user_id = ?", ownerID)
	}
	var projects []models.Project
	err := q.Order("created_at DESC").Order("id DESC").Find(&projects).Error
	return projects, err
}

// DeleteProject removes the project with its reactions and comments.
func (d *Database) DeleteProject(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectReaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectComment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Project{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

// AddReaction reports whether a row was inserted; an existing one is left
// alone.
func (d *Database) AddReaction(ctx context.Context, r *models.ProjectReaction) (bool, error) {
	res := d.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(r)
	return res.RowsAffected > 0, res.Error
}

func (d *Database) RemoveReaction(ctx context.Context, projectID, userID uuid.UUID, kind models.ReactionKind) (bool, error) {
	res := d.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ? AND kind = ?", projectID, userID, kind).
		Delete(&models.ProjectReaction{})
	return res.RowsAffected > 0, res.Error
}

func (d *Database) CountReactions(ctx context.Context, projectID uuid.UUID, kind models.ReactionKind) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.ProjectReaction{}).
		Where("project_id = ? AND kind = ?", projectID, kind).
		Count(&n).Error
	return n, err
}

// ReactionsFor loads every reaction on the given projects, oldest first.
func (d *Database) ReactionsFor(ctx context.Context, projectIDs []uuid.UUID) ([]models.ProjectReaction, error) {
	var out []models.ProjectReaction
	if len(projectIDs) == 0 {
		return out, nil
	}
	err := d.db.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Order("created_at").
		Order("user_id").
		Find(&out).Error
	return out, err
}

func (d *Database) CreateComment(ctx context.Context, c *models.ProjectComment) error {
	return d.db.WithContext(ctx).Create(c).Error
}

// CommentsFor loads comments on the given projects, oldest first, with
// their authors.
func (d *Database) CommentsFor(ctx context.Context, projectIDs []uuid.UUID) ([]models.ProjectComment, error) {
	var out []models.ProjectComment
	if len(projectIDs) == 0 {
		return out, nil
	}
	err := d.db.WithContext(ctx).
		Preload("User").
		Where("project_id IN ?", projectIDs).
		Order("created_at").
		Order("id").
		Find(&out).Error
	return out, err
}
