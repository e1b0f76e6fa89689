package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/shanikumar001/project-gallery-backend/internal/database"
	"github.com/shanikumar001/project-gallery-backend/internal/models"
)

const (
	MaxTitleLength       = 120
	MaxDescriptionLength = 2000
	MaxCommentLength     = 1000
)

type ProjectInput struct {
	Title         string
	Description   string
	LiveDemoURL   string
	CodeURL       string
	MediaURL      string
	MediaFilename string
}

// ProjectView is a project with its reactions and comments as of the read.
type ProjectView struct {
	models.Project
	Likes    []uuid.UUID
	SavedBy  []uuid.UUID
	Comments []models.ProjectComment
}

func (v ProjectView) LikeCount() int    { return len(v.Likes) }
func (v ProjectView) CommentCount() int { return len(v.Comments) }

// ReactionState is the caller's like or save after a toggle, with the
// project's total for that kind counted afterwards.
type ReactionState struct {
	Active  bool
	Count   int64
	Changed bool
}

type ProjectService struct {
	db       *database.Database
	notifier Notifier
	clock    clockwork.Clock
	logger   *zap.Logger
}

func NewProjectService(db *database.Database, opts Options) *ProjectService {
	opts = opts.withDefaults()
	return &ProjectService{
		db:       db,
		notifier: opts.Notifier,
		clock:    opts.Clock,
		logger:   opts.Logger.Named("projects"),
	}
}

// validLink accepts empty or an absolute http(s) URL.
func validLink(s string) bool {
	if s == "" {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *ProjectService) Create(ctx context.Context, ownerID uuid.UUID, in ProjectInput) (*ProjectView, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, ErrInvalidTitle
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	liveDemo := strings.TrimSpace(in.LiveDemoURL)
	code := strings.TrimSpace(in.CodeURL)
	if !validLink(liveDemo) || !validLink(code) {
		return nil, ErrInvalidURL
	}

	owner, err := s.db.GetUser(ctx, ownerID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	project := &models.Project{
		UserID:        ownerID,
		Title:         title,
		Description:   description,
		LiveDemoURL:   liveDemo,
		CodeURL:       code,
		MediaURL:      strings.TrimSpace(in.MediaURL),
		MediaFilename: strings.TrimSpace(in.MediaFilename),
		CreatedAt:     s.clock.Now().UTC(),
	}
	if err := s.db.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("save project: %w", err)
	}
	project.User = *owner

	s.logger.Info("project created", zap.String("id", project.ID.String()), zap.String("owner", ownerID.String()))
	return &ProjectView{Project: *project, Likes: []uuid.UUID{}, SavedBy: []uuid.UUID{}, Comments: []models.ProjectComment{}}, nil
}

// List returns every project, newest first.
func (s *ProjectService) List(ctx context.Context) ([]ProjectView, error) {
	return s.list(ctx, uuid.Nil)
}

func (s *ProjectService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]ProjectView, error) {
	return s.list(ctx, ownerID)
}

func (s *ProjectService) list(ctx context.Context, ownerID uuid.UUID) ([]ProjectView, error) {
	projects, err := s.db.ListProjects(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return s.views(ctx, projects)
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*ProjectView, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []models.Project{*project})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Delete removes a project. Only its owner may do so.
func (s *ProjectService) Delete(ctx context.Context, requester, id uuid.UUID) error {
	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if project.UserID != requester {
		return ErrNotProjectOwner
	}

	n, err := s.db.DeleteProject(ctx, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n == 0 {
		return ErrProjectNotFound
	}
	s.logger.Info("project deleted", zap.String("id", id.String()))
	return nil
}

func (s *ProjectService) Like(ctx context.Context, userID, projectID uuid.UUID) (ReactionState, error) {
	return s.react(ctx, userID, projectID, models.ReactionLike, true)
}

func (s *ProjectService) Unlike(ctx context.Context, userID, projectID uuid.UUID) (ReactionState, error) {
	return s.react(ctx, userID, projectID, models.ReactionLike, false)
}

func (s *ProjectService) Save(ctx context.Context, userID, projectID uuid.UUID) (ReactionState, error) {
	return s.react(ctx, userID, projectID, models.ReactionSave, true)
}

func (s *ProjectService) Unsave(ctx context.Context, userID, projectID uuid.UUID) (ReactionState, error) {
	return s.react(ctx, userID, projectID, models.ReactionSave, false)
}

// react sets or clears one reaction. Repeating either direction is a no-op
// reported with Changed false.
func (s *ProjectService) react(ctx context.Context, userID, projectID uuid.UUID, kind models.ReactionKind, on bool) (ReactionState, error) {
	if _, err := s.load(ctx, projectID); err != nil {
		return ReactionState{}, err
	}

	var (
		changed bool
		err     error
	)
	if on {
		changed, err = s.db.AddReaction(ctx, &models.ProjectReaction{
			ProjectID: projectID,
			UserID:    userID,
			Kind:      kind,
			CreatedAt: s.clock.Now().UTC(),
		})
	} else {
		changed, err = s.db.RemoveReaction(ctx, projectID, userID, kind)
	}
	if err != nil {
		return ReactionState{}, fmt.Errorf("update %s: %w", kind, err)
	}

	n, err := s.db.CountReactions(ctx, projectID, kind)
	if err != nil {
		return ReactionState{}, fmt.Errorf("count %s: %w", kind, err)
	}
	return ReactionState{Active: on, Count: n, Changed: changed}, nil
}

// AddComment appends a comment and tells the owner when someone else wrote it.
func (s *ProjectService) AddComment(ctx context.Context, userID, projectID uuid.UUID, text string) (*models.ProjectComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	project, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	author, err := s.db.GetUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	comment := &models.ProjectComment{
		ProjectID: projectID,
		UserID:    userID,
		Text:      text,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.db.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("save comment: %w", err)
	}
	comment.User = *author

	if project.UserID != userID {
		s.notifier.Notify(project.UserID, EventProjectComment, map[string]interface{}{
			"projectId": projectID,
			"commentId": comment.ID,
			"user":      author.Identity(),
			"text":      text,
		})
	}
	return comment, nil
}

func (s *ProjectService) load(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.db.GetProject(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	return project, nil
}

// views attaches reactions and comments with one query each.
func (s *ProjectService) views(ctx context.Context, projects []models.Project) ([]ProjectView, error) {
	ids := make([]uuid.UUID, len(projects))
	out := make([]ProjectView, len(projects))
	index := make(map[uuid.UUID]int, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
		index[p.ID] = i
		out[i] = ProjectView{Project: p, Likes: []uuid.UUID{}, SavedBy: []uuid.UUID{}, Comments: []models.ProjectComment{}}
	}

	reactions, err := s.db.ReactionsFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load reactions: %w", err)
	}
	for _, r := range reactions {
		v := &out[index[r.ProjectID]]
		switch r.Kind {
		case models.ReactionLike:
			v.Likes = append(v.Likes, r.UserID)
		case models.ReactionSave:
			v.SavedBy = append(v.SavedBy, r.UserID)
		}
	}

	comments, err := s.db.CommentsFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	for _, c := range comments {
		v := &out[index[c.ProjectID]]
		v.Comments = append(v.Comments, c)
	}
	return out, nil
}
