package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/shanikumar001/project-gallery-backend/internal/database"
	"github.com/shanikumar001/project-gallery-backend/internal/models"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.Connect(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createUser(t *testing.T, db *database.Database, username string) *models.User {
	t.Helper()
	u := &models.User{
		Name:         username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		CreatedAt:    epoch,
		LastSeenAt:   epoch,
	}
	require.NoError(t, db.SaveUser(context.Background(), u))
	return u
}

type notification struct {
	UserID  uuid.UUID
	Event   string
	Payload interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (r *recordingNotifier) Notify(userID uuid.UUID, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, notification{UserID: userID, Event: event, Payload: payload})
}

func (r *recordingNotifier) For(userID uuid.UUID, event string) []notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification
	for _, n := range r.events {
		if n.UserID == userID && n.Event == event {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	db       *database.Database
	clock    *clockwork.FakeClock
	notifier *recordingNotifier
	follows  *FollowService
	messages *MessageService
	users    *UserService
	projects *ProjectService
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		db:       newTestDB(t),
		clock:    clockwork.NewFakeClockAt(epoch),
		notifier: &recordingNotifier{},
	}
	opts.Clock = f.clock
	opts.Notifier = f.notifier
	f.follows = NewFollowService(f.db, opts)
	f.messages = NewMessageService(f.db, opts)
	f.users = NewUserService(f.db, 4, opts)
	f.projects = NewProjectService(f.db, opts)
	return f
}
