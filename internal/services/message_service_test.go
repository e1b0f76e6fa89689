package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanikumar001/project-gallery-backend/internal/cache"
	"github.com/shanikumar001/project-gallery-backend/internal/models"
)

func send(t *testing.T, f *fixture, from, to uuid.UUID, text string) {
	t.Helper()
	_, err := f.messages.Send(context.Background(), from, to, text)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	_, err := f.messages.Send(ctx, alice.ID, bob.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = f.messages.Send(ctx, alice.ID, bob.ID, strings.Repeat("a", MaxMessageLength+1))
	assert.ErrorIs(t, err, ErrMessageTooLong)

	_, err = f.messages.Send(ctx, alice.ID, alice.ID, "hi")
	assert.ErrorIs(t, err, ErrSelfMessage)

	_, err = f.messages.Send(ctx, alice.ID, uuid.New(), "hi")
	assert.ErrorIs(t, err, ErrUserNotFound)

	msg, err := f.messages.Send(ctx, alice.ID, bob.ID, "  hello \n")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.Nil(t, msg.ReadAt)

	_, err = f.messages.Send(ctx, alice.ID, bob.ID, strings.Repeat("é", MaxMessageLength))
	assert.NoError(t, err)
}

func TestSendDoesNotNeedFollowEdge(t *testing.T) {
	f := newFixture(t, Options{})
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	send(t, f, alice.ID, bob.ID, "hi stranger")

	n, err := f.messages.UnreadCount(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestHistoryOrderAndPerspective(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")
	carol := createUser(t, f.db, "carol")

	send(t, f, alice.ID, bob.ID, "one")
	send(t, f, bob.ID, alice.ID, "two")
	send(t, f, alice.ID, carol.ID, "elsewhere")
	send(t, f, alice.ID, bob.ID, "three")

	history, err := f.messages.History(ctx, bob.ID, alice.ID, 0, nil)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Text)
	assert.False(t, history[0].IsMe)
	assert.Equal(t, "two", history[1].Text)
	assert.True(t, history[1].IsMe)
	assert.Equal(t, "three", history[2].Text)

	latest, err := f.messages.History(ctx, alice.ID, bob.ID, 2, nil)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "two", latest[0].Text)
	assert.Equal(t, "three", latest[1].Text)

	before := latest[0].CreatedAt
	older, err := f.messages.History(ctx, alice.ID, bob.ID, 10, &before)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, "one", older[0].Text)

	empty, err := f.messages.History(ctx, bob.ID, carol.ID, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAlternatingConversation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	send(t, f, alice.ID, bob.ID, "hi")
	send(t, f, bob.ID, alice.ID, "hey")
	send(t, f, alice.ID, bob.ID, "how are you")

	convs, err := f.messages.Conversations(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, alice.ID, convs[0].Counterpart.ID)
	assert.Equal(t, "alice", convs[0].Counterpart.Name)
	assert.Equal(t, "how are you", convs[0].LastMessage.Text)
	assert.False(t, convs[0].LastMessage.IsMe)
	assert.EqualValues(t, 2, convs[0].UnreadCount)

	convs, err = f.messages.Conversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.True(t, convs[0].LastMessage.IsMe)
	assert.EqualValues(t, 1, convs[0].UnreadCount)

	n, err := f.messages.MarkRead(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = f.messages.MarkRead(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := f.messages.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// marking bob's side read leaves alice's unread alone
	count, err = f.messages.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestConversationsSumMatchesUnreadCount(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	me := createUser(t, f.db, "me")
	a := createUser(t, f.db, "anna")
	b := createUser(t, f.db, "bert")
	c := createUser(t, f.db, "cleo")

	send(t, f, a.ID, me.ID, "a1")
	send(t, f, a.ID, me.ID, "a2")
	send(t, f, me.ID, b.ID, "to bert")
	send(t, f, c.ID, me.ID, "c1")
	send(t, f, b.ID, me.ID, "b1")

	convs, err := f.messages.Conversations(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, convs, 3)

	// newest activity first
	assert.Equal(t, b.ID, convs[0].Counterpart.ID)
	assert.Equal(t, c.ID, convs[1].Counterpart.ID)
	assert.Equal(t, a.ID, convs[2].Counterpart.ID)

	var sum int64
	for _, conv := range convs {
		sum += conv.UnreadCount
	}
	total, err := f.messages.UnreadCount(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, total, sum)
	assert.EqualValues(t, 4, total)
}

func TestConversationsEmpty(t *testing.T) {
	f := newFixture(t, Options{})
	loner := createUser(t, f.db, "loner")

	convs, err := f.messages.Conversations(context.Background(), loner.ID)
	require.NoError(t, err)
	assert.NotNil(t, convs)
	assert.Empty(t, convs)
}

func TestSendNotifiesBothSides(t *testing.T) {
	f := newFixture(t, Options{})
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	send(t, f, alice.ID, bob.ID, "ping")

	toBob := f.notifier.For(bob.ID, EventMessage)
	require.Len(t, toBob, 1)
	assert.Equal(t, false, toBob[0].Payload.(map[string]interface{})["isMe"])

	toAlice := f.notifier.For(alice.ID, EventMessage)
	require.Len(t, toAlice, 1)
	assert.Equal(t, true, toAlice[0].Payload.(map[string]interface{})["isMe"])

	unread := f.notifier.For(bob.ID, EventUnreadCount)
	require.Len(t, unread, 1)
	assert.Equal(t, map[string]int64{"count": 1}, unread[0].Payload)
}

func TestUnreadCountUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newFixture(t, Options{Cache: cache.NewUnreadCounts(rdb, time.Minute)})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	send(t, f, alice.ID, bob.ID, "one")

	n, err := f.messages.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.True(t, mr.Exists("unread:"+bob.ID.String()))

	// each write drops the cached value before the next read
	send(t, f, alice.ID, bob.ID, "two")
	n, err = f.messages.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = f.messages.MarkRead(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	n, err = f.messages.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnreadCountSurvivesCacheOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newFixture(t, Options{Cache: cache.NewUnreadCounts(rdb, time.Minute)})
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")
	send(t, f, alice.ID, bob.ID, "one")

	mr.Close()

	n, err := f.messages.UnreadCount(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOrderingWithinOneInstant(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	// the fake clock is not advanced, so every message shares created_at
	texts := []string{"1", "2", "3", "4", "5", "6"}
	for i, text := range texts {
		from, to := alice.ID, bob.ID
		if i%2 == 1 {
			from, to = bob.ID, alice.ID
		}
		_, err := f.messages.Send(ctx, from, to, text)
		require.NoError(t, err)
	}

	history, err := f.messages.History(ctx, alice.ID, bob.ID, 0, nil)
	require.NoError(t, err)
	got := make([]string, len(history))
	for i, m := range history {
		got[i] = m.Text
	}
	assert.Equal(t, texts, got)

	latest, err := f.messages.History(ctx, bob.ID, alice.ID, 2, nil)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "5", latest[0].Text)
	assert.Equal(t, "6", latest[1].Text)

	for _, viewer := range []uuid.UUID{alice.ID, bob.ID} {
		convs, err := f.messages.Conversations(ctx, viewer)
		require.NoError(t, err)
		require.Len(t, convs, 1)
		assert.Equal(t, "6", convs[0].LastMessage.Text)
	}
}

// racingCache runs hook once right before the first Set, standing in for a
// Send that commits while UnreadCount is between its store read and Set.
type racingCache struct {
	UnreadCache
	hook func()
}

func (r *racingCache) Set(ctx context.Context, userID uuid.UUID, count, version int64) error {
	if h := r.hook; h != nil {
		r.hook = nil
		h()
	}
	return r.UnreadCache.Set(ctx, userID, count, version)
}

func TestUnreadCountDoesNotCacheStaleValue(t *testing.T) {
	_, rdb := newMiniRedis(t)
	inner := cache.NewUnreadCounts(rdb, time.Minute)
	rc := &racingCache{UnreadCache: inner}

	f := newFixture(t, Options{Cache: rc})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	rc.hook = func() {
		require.NoError(t, f.db.SaveMessage(ctx, &models.Message{
			FromUserID: alice.ID, ToUserID: bob.ID, Text: "late", CreatedAt: f.clock.Now(),
		}))
		require.NoError(t, inner.Invalidate(ctx, bob.ID))
	}

	n, err := f.messages.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.messages.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
