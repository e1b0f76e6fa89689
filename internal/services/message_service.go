package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/shanikumar001/project-gallery-backend/internal/database"
	"github.com/shanikumar001/project-gallery-backend/internal/models"
)

const MaxMessageLength = 5000

// MessageView is a message as seen by one participant.
type MessageView struct {
	models.Message
	IsMe bool
}

// Conversation is derived per request from the message table; nothing
// about it is stored.
type Conversation struct {
	Counterpart models.User
	LastMessage MessageView
	UnreadCount int64
}

type MessageService struct {
	db       *database.Database
	cache    UnreadCache
	notifier Notifier
	clock    clockwork.Clock
	logger   *zap.Logger
}

func NewMessageService(db *database.Database, opts Options) *MessageService {
	opts = opts.withDefaults()
	return &MessageService{
		db:       db,
		cache:    opts.Cache,
		notifier: opts.Notifier,
		clock:    opts.Clock,
		logger:   opts.Logger.Named("messages"),
	}
}

func viewOf(m models.Message, viewer uuid.UUID) MessageView {
	return MessageView{Message: m, IsMe: m.FromUserID == viewer}
}

// Send stores a new unread message from -> to. Messaging does not depend
// on the follow graph.
func (s *MessageService) Send(ctx context.Context, from, to uuid.UUID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}
	if from == to {
		return nil, ErrSelfMessage
	}
	if _, err := s.db.GetUser(ctx, to); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load recipient: %w", err)
	}

	msg := &models.Message{
		FromUserID: from,
		ToUserID:   to,
		Text:       text,
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.db.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	s.invalidate(ctx, to)
	s.logger.Debug("message sent",
		zap.String("id", msg.ID.String()),
		zap.String("from", from.String()),
		zap.String("to", to.String()))

	s.notifier.Notify(to, EventMessage, messageEvent(viewOf(*msg, to)))
	s.notifier.Notify(from, EventMessage, messageEvent(viewOf(*msg, from)))
	s.pushUnread(ctx, to)

	return msg, nil
}

// History returns the messages between viewer and counterpart, oldest
// first. limit <= 0 returns the whole history.
func (s *MessageService) History(ctx context.Context, viewer, counterpart uuid.UUID, limit int, before *time.Time) ([]MessageView, error) {
	msgs, err := s.db.ListMessagesBetween(ctx, viewer, counterpart, limit, before)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	out := make([]MessageView, len(msgs))
	for i, m := range msgs {
		out[i] = viewOf(m, viewer)
	}
	return out, nil
}

// MarkRead stamps every unread message counterpart sent to viewer. Calling
// it again with nothing unread changes nothing.
func (s *MessageService) MarkRead(ctx context.Context, viewer, counterpart uuid.UUID) (int64, error) {
	n, err := s.db.MarkRead(ctx, viewer, counterpart, s.clock.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	if n > 0 {
		s.invalidate(ctx, viewer)
		s.pushUnread(ctx, viewer)
	}
	return n, nil
}

// Conversations lists every counterpart of viewer, newest activity first.
func (s *MessageService) Conversations(ctx context.Context, viewer uuid.UUID) ([]Conversation, error) {
	latest, err := s.db.LatestPerCounterpart(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("latest messages: %w", err)
	}
	if len(latest) == 0 {
		return []Conversation{}, nil
	}

	unread, err := s.db.UnreadByCounterpart(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("unread counts: %w", err)
	}

	ids := make([]uuid.UUID, len(latest))
	for i, m := range latest {
		ids[i] = counterpartOf(m, viewer)
	}
	users, err := s.db.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load counterparts: %w", err)
	}

	out := make([]Conversation, len(latest))
	for i, m := range latest {
		id := ids[i]
		user, ok := users[id]
		if !ok {
			user = models.User{ID: id}
		}
		out[i] = Conversation{
			Counterpart: user,
			LastMessage: viewOf(m, viewer),
			UnreadCount: unread[id],
		}
	}
	return out, nil
}

// UnreadCount is the badge total. It may come from the cache, which is
// invalidated on every write that changes it. A count read from the store
// is only cached if no invalidation happened in between.
func (s *MessageService) UnreadCount(ctx context.Context, viewer uuid.UUID) (int64, error) {
	cached, ok, version, cacheErr := s.cache.Get(ctx, viewer)
	if cacheErr != nil {
		s.logger.Warn("unread cache get", zap.Error(cacheErr))
	} else if ok {
		return cached, nil
	}

	n, err := s.db.CountUnread(ctx, viewer)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	if cacheErr == nil {
		if err := s.cache.Set(ctx, viewer, n, version); err != nil {
			s.logger.Warn("unread cache set", zap.Error(err))
		}
	}
	return n, nil
}

func (s *MessageService) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("unread cache invalidate", zap.String("user", userID.String()), zap.Error(err))
	}
}

func (s *MessageService) pushUnread(ctx context.Context, userID uuid.UUID) {
	n, err := s.UnreadCount(ctx, userID)
	if err != nil {
		s.logger.Warn("unread count for push", zap.Error(err))
		return
	}
	s.notifier.Notify(userID, EventUnreadCount, map[string]int64{"count": n})
}

func counterpartOf(m models.Message, viewer uuid.UUID) uuid.UUID {
	if m.FromUserID == viewer {
		return m.ToUserID
	}
	return m.FromUserID
}

func messageEvent(v MessageView) map[string]interface{} {
	return map[string]interface{}{
		"id":         v.ID,
		"fromUserId": v.FromUserID,
		"toUserId":   v.ToUserID,
		"text":       v.Text,
		"createdAt":  v.CreatedAt,
		"isMe":       v.IsMe,
	}
}
