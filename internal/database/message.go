package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/shanikumar001/project-gallery-backend/internal/models"
)

func (d *Database) SaveMessage(ctx context.Context, message *models.Message) error {
	return d.db.WithContext(ctx).Create(message).Error
}

// ListMessagesBetween returns the messages exchanged by a and b, oldest
// first. With limit > 0 only the newest limit messages (optionally older
// than before) are returned, still in ascending order.
func (d *Database) ListMessagesBetween(ctx context.Context, a, b uuid.UUID, limit int, before *time.Time) ([]models.Message, error) {
	var messages []models.Message

	query := d.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)", a, b, b, a)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	if limit <= 0 {
		err := query.Order("created_at ASC").Order("id ASC").Find(&messages).Error
		return messages, err
	}

	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkRead stamps every unread message from counterpart to viewer.
func (d *Database) MarkRead(ctx context.Context, viewer, counterpart uuid.UUID, at time.Time) (int64, error) {
	res := d.db.WithContext(ctx).Model(&models.Message{}).
		Where("to_user_id = ? AND from_user_id = ? AND read_at IS NULL", viewer, counterpart).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}

func (d *Database) CountUnread(ctx context.Context, viewer uuid.UUID) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&models.Message{}).
		Where("to_user_id = ? AND read_at IS NULL", viewer).
		Count(&n).Error
	return n, err
}

// UnreadByCounterpart counts unread messages addressed to viewer, grouped
// by sender.
func (d *Database) UnreadByCounterpart(ctx context.Context, viewer uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		FromUserID uuid.UUID
		Unread     int64
	}
	err := d.db.WithContext(ctx).Model(&models.Message{}).
		Select("from_user_id, COUNT(*) AS unread").
		Where("to_user_id = ? AND read_at IS NULL", viewer).
		Group("from_user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		out[r.FromUserID] = r.Unread
	}
	return out, nil
}

const latestPerCounterpartSQL = `
SELECT id FROM (
	SELECT m.*, ROW_NUMBER() OVER (
		PARTITION BY CASE WHEN m.from_user_id = @viewer THEN m.to_user_id ELSE m.from_user_id END
		ORDER BY m.created_at DESC, m.id DESC
	) AS rn
	FROM messages m
	WHERE m.from_user_id = @viewer OR m.to_user_id = @viewer
) latest
WHERE rn = 1`

// LatestPerCounterpart returns, for every user viewer has exchanged messages
// with, the most recent message of that pair. Newest conversation first.
func (d *Database) LatestPerCounterpart(ctx context.Context, viewer uuid.UUID) ([]models.Message, error) {
	var ids []uuid.UUID
	err := d.db.WithContext(ctx).Raw(latestPerCounterpartSQL, sql.Named("viewer", viewer)).Scan(&ids).Error
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	var messages []models.Message
	err = d.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at DESC").
		Order("id DESC").
		Find(&messages).Error
	return messages, err
}
