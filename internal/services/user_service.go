package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/shanikumar001/project-gallery-backend/internal/database"
	"github.com/shanikumar001/project-gallery-backend/internal/models"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MaxBioLength      = 500
	MinPasswordLength = 6
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.]+$`)

// NormalizeUsername lowercases and trims, the form usernames are stored in.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ValidateUsername(username string) error {
	n := len(username)
	if n < MinUsernameLength || n > MaxUsernameLength || !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

type SignupInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// ProfileUpdate leaves nil fields untouched.
type ProfileUpdate struct {
	Name         *string
	Username     *string
	Bio          *string
	ProfilePhoto *string
}

type Profile struct {
	models.User
	FollowerCount  int64
	FollowingCount int64
}

// UserService is the identity store the follow and messaging engines lean on.
type UserService struct {
	db       *database.Database
	hashCost int
	clock    clockwork.Clock
	logger   *zap.Logger
}

func NewUserService(db *database.Database, hashCost int, opts Options) *UserService {
	opts = opts.withDefaults()
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &UserService{db: db, hashCost: hashCost, clock: opts.Clock, logger: opts.Logger.Named("users")}
}

func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	username := NormalizeUsername(in.Username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(in.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	if err := s.ensureFree(ctx, uuid.Nil, username, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now().UTC()
	user := &models.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		LastSeenAt:   now,
		CreatedAt:    now,
	}
	if err := s.db.SaveUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, s.duplicateCause(ctx, email)
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.logger.Info("user registered", zap.String("id", user.ID.String()), zap.String("username", username))
	return user, nil
}

// Authenticate checks email/password and bumps last-seen on success.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.db.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}

	if err := s.db.UpdateLastSeen(ctx, user.ID, s.clock.Now().UTC()); err != nil {
		s.logger.Warn("update last seen", zap.String("id", user.ID.String()), zap.Error(err))
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.db.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// Profile returns the user with follower/following counts computed now.
func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	followers, err := s.db.CountFollowers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count followers: %w", err)
	}
	following, err := s.db.CountFollowing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count following: %w", err)
	}
	return &Profile{User: *user, FollowerCount: followers, FollowingCount: following}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		user.Name = name
	}
	if upd.Username != nil {
		username := NormalizeUsername(*upd.Username)
		if err := ValidateUsername(username); err != nil {
			return nil, err
		}
		if username != user.Username {
			if err := s.ensureFree(ctx, user.ID, username, ""); err != nil {
				return nil, err
			}
			user.Username = username
		}
	}
	if upd.Bio != nil {
		if utf8.RuneCountInString(*upd.Bio) > MaxBioLength {
			return nil, ErrBioTooLong
		}
		user.Bio = *upd.Bio
	}
	if upd.ProfilePhoto != nil {
		user.ProfilePhoto = strings.TrimSpace(*upd.ProfilePhoto)
	}

	if err := s.db.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ensureFree fails when username or email already belong to someone other
// than self. Empty values are not checked.
func (s *UserService) ensureFree(ctx context.Context, self uuid.UUID, username, email string) error {
	if username != "" {
		u, err := s.db.FindUserByUsername(ctx, username)
		if err == nil && u.ID != self {
			return ErrUsernameTaken
		}
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("find username: %w", err)
		}
	}
	if email != "" {
		u, err := s.db.FindUserByEmail(ctx, email)
		if err == nil && u.ID != self {
			return ErrEmailTaken
		}
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("find email: %w", err)
		}
	}
	return nil
}

func (s *UserService) duplicateCause(ctx context.Context, email string) error {
	if _, err := s.db.FindUserByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}
