package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/shanikumar001/project-gallery-backend/internal/models"
	"github.com/shanikumar001/project-gallery-backend/internal/services"
)

// CreateProjectRequest binds from JSON or a form. Media is referenced by
// URL; uploading the bytes happens elsewhere.
type CreateProjectRequest struct {
	Title         string `json:"title" form:"title"`
	Description   string `json:"description" form:"description"`
	LiveDemoURL   string `json:"liveDemoUrl" form:"liveDemoUrl"`
	CodeURL       string `json:"codeUrl" form:"codeUrl"`
	MediaURL      string `json:"mediaUrl" form:"mediaUrl"`
	MediaFilename string `json:"mediaFilename" form:"mediaFilename"`
}

type CommentRequest struct {
	Text string `json:"text"`
}

type MediaResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

type CommentResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewCommentResponse(c models.ProjectComment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		UserName:  c.User.Name,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

type ProjectResponse struct {
	ID           uuid.UUID         `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	LiveDemoURL  string            `json:"liveDemoUrl,omitempty"`
	CodeURL      string            `json:"codeUrl,omitempty"`
	Media        []MediaResponse   `json:"media"`
	User         UserInfo          `json:"user"`
	Likes        []uuid.UUID       `json:"likes"`
	SavedBy      []uuid.UUID       `json:"savedBy"`
	LikeCount    int               `json:"likeCount"`
	CommentCount int               `json:"commentCount"`
	Comments     []CommentResponse `json:"comments"`
	CreatedAt    time.Time         `json:"createdAt"`
}

func NewProjectResponse(v services.ProjectView) ProjectResponse {
	media := []MediaResponse{}
	if v.MediaURL != "" {
		media = append(media, MediaResponse{URL: v.MediaURL, Filename: v.MediaFilename})
	}
	comments := make([]CommentResponse, len(v.Comments))
	for i, c := range v.Comments {
		comments[i] = NewCommentResponse(c)
	}
	return ProjectResponse{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		LiveDemoURL:  v.LiveDemoURL,
		CodeURL:      v.CodeURL,
		Media:        media,
		User:         v.User.Identity(),
		Likes:        v.Likes,
		SavedBy:      v.SavedBy,
		LikeCount:    v.LikeCount(),
		CommentCount: v.CommentCount(),
		Comments:     comments,
		CreatedAt:    v.CreatedAt,
	}
}

func ProjectList(views []services.ProjectView) []ProjectResponse {
	out := make([]ProjectResponse, len(views))
	for i, v := range views {
		out[i] = NewProjectResponse(v)
	}
	return out
}
