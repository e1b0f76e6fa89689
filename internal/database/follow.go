package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shanikumar001/project-gallery-backend/internal/models"
)

// forUpdate adds a row lock when the backend supports one; sqlite drops it.
func (d *Database) forUpdate(lock bool) *gorm.DB {
	if lock {
		return d.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return d.db
}

func (d *Database) FollowEdgeExists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var edge models.FollowEdge
	err := d.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *Database) CreateFollowEdge(ctx context.Context, edge *models.FollowEdge) error {
	return d.db.WithContext(ctx).Create(edge).Error
}

// DeleteFollowEdge reports how many edges were removed (0 or 1).
func (d *Database) DeleteFollowEdge(ctx context.Context, followerID, followeeID uuid.UUID) (int64, error) {
	res := d.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.FollowEdge{})
	return res.RowsAffected, res.Error
}

func (d *Database) PendingRequestBetween(ctx context.Context, fromID, toID uuid.UUID, lock bool) (*models.FollowRequest, error) {
	var req models.FollowRequest
	err := d.forUpdate(lock).WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ? AND status = ?", fromID, toID, models.RequestPending).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// PendingRequestFor returns the pending request id addressed to ownerID.
func (d *Database) PendingRequestFor(ctx context.Context, id, ownerID uuid.UUID, lock bool) (*models.FollowRequest, error) {
	var req models.FollowRequest
	err := d.forUpdate(lock).WithContext(ctx).
		Where("id = ? AND to_user_id = ? AND status = ?", id, ownerID, models.RequestPending).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (d *Database) CreateFollowRequest(ctx context.Context, req *models.FollowRequest) error {
	return d.db.WithContext(ctx).Create(req).Error
}

// ResolveFollowRequest moves a pending request to status. It only matches
// rows that are still pending, so a concurrent resolution yields 0.
func (d *Database) ResolveFollowRequest(ctx context.Context, id uuid.UUID, status models.RequestStatus, at time.Time) (int64, error) {
	res := d.db.WithContext(ctx).Model(&models.FollowRequest{}).
		Where("id = ? AND status = ?", id, models.RequestPending).
		Updates(map[string]interface{}{"status": status, "resolved_at": at})
	return res.RowsAffected, res.Error
}

func (d *Database) DeleteFollowRequest(ctx context.Context, id uuid.UUID) (int64, error) {
	res := d.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, models.RequestPending).
		Delete(&models.FollowRequest{})
	return res.RowsAffected, res.Error
}

// ListPendingRequests returns requests waiting on toID, newest first, with
// the requester preloaded.
func (d *Database) ListPendingRequests(ctx context.Context, toID uuid.UUID) ([]models.FollowRequest, error) {
	var reqs []models.FollowRequest
	err := d.db.WithContext(ctx).
		Where("to_user_id = ? AND status = ?", toID, models.RequestPending).
		Order("created_at DESC").
		Order("id").
		Preload("FromUser").
		Find(&reqs).Error
	return reqs, err
}

// ListFollowers returns the users following userID, most recent edge first.
func (d *Database) ListFollowers(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := d.db.WithContext(ctx).
		Joins("JOIN follow_edges fe ON fe.follower_id = users.id").
		Where("fe.followee_id = ?", userID).
		Order("fe.created_at DESC").
		Order("users.id").
		Find(&users).Error
	return users, err
}

// ListFollowing returns the users userID follows, most recent edge first.
func (d *Database) ListFollowing(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := d.db.WithContext(ctx).
		Joins("JOIN follow_edges fe ON fe.followee_id = users.id").
		Where("fe.follower_id = ?", userID).
		Order("fe.created_at DESC").
		Order("users.id").
		Find(&users).Error
	return users, err
}

func (d *Database) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.FollowEdge{}).Where("followee_id = ?", userID).Count(&n).Error
	return n, err
}

func (d *Database) CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.FollowEdge{}).Where("follower_id = ?", userID).Count(&n).Error
	return n, err
}
