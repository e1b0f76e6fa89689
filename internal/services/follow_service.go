package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/shanikumar001/project-gallery-backend/internal/database"
	"github.com/shanikumar001/project-gallery-backend/internal/models"
)

// FollowService owns follow edges and follow requests. Every mutation on an
// ordered pair runs under the pair lock and inside one transaction, so a
// pending request and an edge for the same pair never coexist.
type FollowService struct {
	db       *database.Database
	locks    PairLocker
	notifier Notifier
	clock    clockwork.Clock
	logger   *zap.Logger
}

func NewFollowService(db *database.Database, opts Options) *FollowService {
	opts = opts.withDefaults()
	return &FollowService{
		db:       db,
		locks:    opts.Locker,
		notifier: opts.Notifier,
		clock:    opts.Clock,
		logger:   opts.Logger.Named("follow"),
	}
}

// relationOf reads the current state of from -> to. The edge is checked
// first so a reader racing an accept still never sees both flags set.
func relationOf(ctx context.Context, db *database.Database, from, to uuid.UUID, lock bool) (Relation, *models.FollowRequest, error) {
	following, err := db.FollowEdgeExists(ctx, from, to)
	if err != nil {
		return RelationNone, nil, fmt.Errorf("load follow edge: %w", err)
	}
	if following {
		return RelationFollowing, nil, nil
	}

	req, err := db.PendingRequestBetween(ctx, from, to, lock)
	if errors.Is(err, database.ErrNotFound) {
		return RelationNone, nil, nil
	}
	if err != nil {
		return RelationNone, nil, fmt.Errorf("load follow request: %w", err)
	}
	return RelationRequested, req, nil
}

func (s *FollowService) requireUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.db.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// Follow files a pending request from requester to target.
func (s *FollowService) Follow(ctx context.Context, requester, target uuid.UUID) (*models.FollowRequest, error) {
	if requester == target {
		return nil, ErrSelfFollow
	}
	from, err := s.requireUser(ctx, requester)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireUser(ctx, target); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, pairKey(requester, target))
	if err != nil {
		return nil, fmt.Errorf("lock pair: %w", err)
	}
	defer unlock()

	var req *models.FollowRequest
	err = s.db.Transaction(ctx, func(tx *database.Database) error {
		cur, _, err := relationOf(ctx, tx, requester, target, true)
		if err != nil {
			return err
		}
		if _, err := NextRelation(cur, ActionFollow); err != nil {
			return err
		}

		req = &models.FollowRequest{
			FromUserID: requester,
			ToUserID:   target,
			Status:     models.RequestPending,
			CreatedAt:  s.clock.Now().UTC(),
		}
		if err := tx.CreateFollowRequest(ctx, req); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return ErrAlreadyRequested
			}
			return fmt.Errorf("create follow request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	req.FromUser = *from
	s.logger.Debug("follow requested",
		zap.String("from", requester.String()),
		zap.String("to", target.String()),
		zap.String("request_id", req.ID.String()))
	s.notifier.Notify(target, EventFollowRequest, map[string]interface{}{
		"id":       req.ID,
		"fromUser": from.Identity(),
	})

	return req, nil
}

// Unfollow removes the edge requester -> target, or cancels the pending
// request when the relation never got past requested.
func (s *FollowService) Unfollow(ctx context.Context, requester, target uuid.UUID) (FollowStatus, error) {
	if requester == target {
		return FollowStatus{}, ErrSelfFollow
	}

	unlock, err := s.locks.Lock(ctx, pairKey(requester, target))
	if err != nil {
		return FollowStatus{}, fmt.Errorf("lock pair: %w", err)
	}
	defer unlock()

	var next Relation
	err = s.db.Transaction(ctx, func(tx *database.Database) error {
		cur, pending, err := relationOf(ctx, tx, requester, target, true)
		if err != nil {
			return err
		}
		next, err = NextRelation(cur, ActionUnfollow)
		if err != nil {
			return err
		}

		switch cur {
		case RelationFollowing:
			n, err := tx.DeleteFollowEdge(ctx, requester, target)
			if err != nil {
				return fmt.Errorf("delete follow edge: %w", err)
			}
			if n == 0 {
				return ErrNotFollowing
			}
		case RelationRequested:
			n, err := tx.DeleteFollowRequest(ctx, pending.ID)
			if err != nil {
				return fmt.Errorf("delete follow request: %w", err)
			}
			if n == 0 {
				return ErrNotFollowing
			}
		}
		return nil
	})
	if err != nil {
		return FollowStatus{}, err
	}

	s.logger.Debug("unfollowed",
		zap.String("from", requester.String()),
		zap.String("to", target.String()))
	return next.Status(), nil
}

// Status reports how viewer relates to target.
func (s *FollowService) Status(ctx context.Context, viewer, target uuid.UUID) (FollowStatus, error) {
	if viewer == target {
		return FollowStatus{}, nil
	}
	cur, _, err := relationOf(ctx, s.db, viewer, target, false)
	if err != nil {
		return FollowStatus{}, err
	}
	return cur.Status(), nil
}

// Accept turns the pending request into a follow edge fromUser -> owner.
func (s *FollowService) Accept(ctx context.Context, owner, requestID uuid.UUID) (*models.FollowRequest, error) {
	req, err := s.resolve(ctx, owner, requestID, ActionAccept)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(req.FromUserID, EventFollowAccepted, map[string]interface{}{
		"requestId": req.ID,
		"userId":    owner,
	})
	return req, nil
}

// Decline drops the pending request without creating an edge.
func (s *FollowService) Decline(ctx context.Context, owner, requestID uuid.UUID) (*models.FollowRequest, error) {
	return s.resolve(ctx, owner, requestID, ActionDecline)
}

func (s *FollowService) resolve(ctx context.Context, owner, requestID uuid.UUID, action FollowAction) (*models.FollowRequest, error) {
	req, err := s.db.PendingRequestFor(ctx, requestID, owner, false)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load follow request: %w", err)
	}

	unlock, err := s.locks.Lock(ctx, pairKey(req.FromUserID, owner))
	if err != nil {
		return nil, fmt.Errorf("lock pair: %w", err)
	}
	defer unlock()

	now := s.clock.Now().UTC()
	status := models.RequestDeclined
	if action == ActionAccept {
		status = models.RequestAccepted
	}

	err = s.db.Transaction(ctx, func(tx *database.Database) error {
		// re-read under the lock; another resolution may have won
		if _, err := tx.PendingRequestFor(ctx, requestID, owner, true); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrRequestNotFound
			}
			return fmt.Errorf("load follow request: %w", err)
		}
		cur, _, err := relationOf(ctx, tx, req.FromUserID, owner, true)
		if err != nil {
			return err
		}
		if _, err := NextRelation(cur, action); err != nil {
			return err
		}

		n, err := tx.ResolveFollowRequest(ctx, requestID, status, now)
		if err != nil {
			return fmt.Errorf("resolve follow request: %w", err)
		}
		if n == 0 {
			return ErrRequestNotFound
		}

		if action == ActionAccept {
			edge := &models.FollowEdge{FollowerID: req.FromUserID, FolloweeID: owner, CreatedAt: now}
			if err := tx.CreateFollowEdge(ctx, edge); err != nil {
				if errors.Is(err, database.ErrDuplicate) {
					return ErrAlreadyFollowing
				}
				return fmt.Errorf("create follow edge: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	req.Status = status
	req.ResolvedAt = &now
	if from, err := s.db.GetUser(ctx, req.FromUserID); err == nil {
		req.FromUser = *from
	}

	s.logger.Debug("follow request resolved",
		zap.String("request_id", requestID.String()),
		zap.String("status", string(status)))
	return req, nil
}

// Requests lists the pending requests addressed to owner.
func (s *FollowService) Requests(ctx context.Context, owner uuid.UUID) ([]models.FollowRequest, error) {
	reqs, err := s.db.ListPendingRequests(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list follow requests: %w", err)
	}
	return reqs, nil
}

func (s *FollowService) Followers(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.db.ListFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return users, nil
}

func (s *FollowService) Following(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.db.ListFollowing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	return users, nil
}
