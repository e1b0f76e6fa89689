package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanikumar001/project-gallery-backend/internal/models"
)

func TestFollowCreatesPendingRequest(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	req, err := f.follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Equal(t, alice.ID, req.FromUser.ID)

	status, err := f.follows.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowStatus{Requested: true}, status)

	// the reverse direction is independent
	status, err = f.follows.Status(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowStatus{}, status)

	reqs, err := f.follows.Requests(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, req.ID, reqs[0].ID)
	assert.Equal(t, "alice", reqs[0].FromUser.Username)

	events := f.notifier.For(bob.ID, EventFollowRequest)
	require.Len(t, events, 1)
	payload := events[0].Payload.(map[string]interface{})
	assert.Equal(t, req.ID, payload["id"])
	assert.Equal(t, alice.Identity(), payload["fromUser"])
}

func TestFollowRejections(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	_, err := f.follows.Follow(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrSelfFollow)

	_, err = f.follows.Follow(ctx, alice.ID, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.follows.Follow(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrAlreadyRequested)

	reqs, err := f.follows.Requests(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
}

func TestAcceptCreatesEdge(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	req, err := f.follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	accepted, err := f.follows.Accept(ctx, bob.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestAccepted, accepted.Status)
	require.NotNil(t, accepted.ResolvedAt)

	status, err := f.follows.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowStatus{Following: true}, status)

	followers, err := f.follows.Followers(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, alice.ID, followers[0].ID)

	following, err := f.follows.Following(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, bob.ID, following[0].ID)

	reqs, err := f.follows.Requests(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, reqs)

	_, err = f.follows.Accept(ctx, bob.ID, req.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	_, err = f.follows.Follow(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrAlreadyFollowing)

	assert.Len(t, f.notifier.For(alice.ID, EventFollowAccepted), 1)
}

func TestResolveRequiresOwner(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")
	carol := createUser(t, f.db, "carol")

	req, err := f.follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = f.follows.Accept(ctx, carol.ID, req.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)
	_, err = f.follows.Decline(ctx, alice.ID, req.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)
	_, err = f.follows.Accept(ctx, bob.ID, uuid.New())
	assert.ErrorIs(t, err, ErrRequestNotFound)

	status, err := f.follows.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowStatus{Requested: true}, status)
}

func TestDeclineAllowsNewRequest(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	req, err := f.follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	declined, err := f.follows.Decline(ctx, bob.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestDeclined, declined.Status)

	status, err := f.follows.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowStatus{}, status)

	followers, err := f.follows.Followers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)

	again, err := f.follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.NotEqual(t, req.ID, again.ID)
}

func TestUnfollow(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	_, err := f.follows.Unfollow(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotFollowing)
	_, err = f.follows.Unfollow(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrSelfFollow)

	t.Run("cancels pending request", func(t *testing.T) {
		_, err := f.follows.Follow(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		status, err := f.follows.Unfollow(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, FollowStatus{}, status)

		reqs, err := f.follows.Requests(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, reqs)
	})

	t.Run("removes edge", func(t *testing.T) {
		req, err := f.follows.Follow(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		_, err = f.follows.Accept(ctx, bob.ID, req.ID)
		require.NoError(t, err)

		status, err := f.follows.Unfollow(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, FollowStatus{}, status)

		followers, err := f.follows.Followers(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, followers)

		_, err = f.follows.Unfollow(ctx, alice.ID, bob.ID)
		assert.ErrorIs(t, err, ErrNotFollowing)
	})
}

func TestFollowersOrderedByMostRecent(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	target := createUser(t, f.db, "target")

	var names []string
	for _, name := range []string{"first", "second", "third"} {
		u := createUser(t, f.db, name)
		req, err := f.follows.Follow(ctx, u.ID, target.ID)
		require.NoError(t, err)
		_, err = f.follows.Accept(ctx, target.ID, req.ID)
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
		names = append([]string{name}, names...)
	}

	followers, err := f.follows.Followers(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, followers, 3)
	for i, u := range followers {
		assert.Equal(t, names[i], u.Username)
	}

	_, err = f.follows.Followers(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.follows.Following(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestConcurrentFollowCreatesOneRequest(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	const n = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		errs      []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.follows.Follow(ctx, alice.ID, bob.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrAlreadyRequested)
	}

	reqs, err := f.follows.Requests(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
}

func TestConcurrentAcceptAndDecline(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	req, err := f.follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	var (
		wg                 sync.WaitGroup
		acceptErr, declErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, acceptErr = f.follows.Accept(ctx, bob.ID, req.ID)
	}()
	go func() {
		defer wg.Done()
		_, declErr = f.follows.Decline(ctx, bob.ID, req.ID)
	}()
	wg.Wait()

	// exactly one resolution wins
	assert.True(t, (acceptErr == nil) != (declErr == nil), "accept=%v decline=%v", acceptErr, declErr)

	status, err := f.follows.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, status.Requested)
	assert.Equal(t, acceptErr == nil, status.Following)
}

func TestStatusAgainstSelf(t *testing.T) {
	f := newFixture(t, Options{})
	alice := createUser(t, f.db, "alice")

	status, err := f.follows.Status(context.Background(), alice.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowStatus{}, status)
}

type unlockedPairs struct{}

func (unlockedPairs) Lock(context.Context, string) (func(), error) { return func() {}, nil }

type busyPairs struct{}

func (busyPairs) Lock(context.Context, string) (func(), error) { return nil, ErrLockTimeout }

func TestConcurrentFollowWithoutPairLock(t *testing.T) {
	f := newFixture(t, Options{Locker: unlockedPairs{}})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	var (
		wg        sync.WaitGroup
		succeeded int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.follows.Follow(ctx, alice.ID, bob.ID)
			if err == nil {
				atomic.AddInt32(&succeeded, 1)
				return
			}
			assert.ErrorIs(t, err, ErrAlreadyRequested)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, succeeded)
	reqs, err := f.follows.Requests(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
}

func TestContendedPairIsConflict(t *testing.T) {
	f := newFixture(t, Options{Locker: busyPairs{}})
	ctx := context.Background()
	alice := createUser(t, f.db, "alice")
	bob := createUser(t, f.db, "bob")

	_, err := f.follows.Follow(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = f.follows.Unfollow(ctx, alice.ID, bob.ID)
	assert.Equal(t, KindConflict, KindOf(err))
}
