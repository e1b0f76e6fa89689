package services

import (
	"context"

	"github.com/google/uuid"
)

// UnreadCache holds recently computed global unread counts. A miss or an
// error always falls back to the store.
//
// Get also returns the key's version. Set only writes when the version is
// unchanged, so a count computed before a concurrent Invalidate is dropped
// instead of cached.
type UnreadCache interface {
	Get(ctx context.Context, userID uuid.UUID) (count int64, ok bool, version int64, err error)
	Set(ctx context.Context, userID uuid.UUID, count, version int64) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type nopCache struct{}

func (nopCache) Get(context.Context, uuid.UUID) (int64, bool, int64, error) { return 0, false, 0, nil }
func (nopCache) Set(context.Context, uuid.UUID, int64, int64) error         { return nil }
func (nopCache) Invalidate(context.Context, uuid.UUID) error                { return nil }
