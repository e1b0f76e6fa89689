package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/shanikumar001/project-gallery-backend/internal/models"
	"github.com/shanikumar001/project-gallery-backend/internal/services"
)

// UserInfo is the public identity attached to lists, requests and chats.
type UserInfo = models.Identity

func UserList(users []models.User) []UserInfo {
	out := make([]UserInfo, len(users))
	for i, u := range users {
		out[i] = u.Identity()
	}
	return out
}

type ProfileResponse struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	Username       string            `json:"username"`
	Email          string            `json:"email,omitempty"`
	Bio            string            `json:"bio"`
	ProfilePhoto   string            `json:"profilePhoto,omitempty"`
	FollowerCount  int64             `json:"followerCount"`
	FollowingCount int64             `json:"followingCount"`
	Projects       []ProjectResponse `json:"projects"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// NewProfileResponse hides the email unless includeEmail is set, which is
// only the case when users look at themselves.
func NewProfileResponse(p *services.Profile, projects []services.ProjectView, includeEmail bool) ProfileResponse {
	resp := ProfileResponse{
		ID:             p.ID,
		Name:           p.Name,
		Username:       p.Username,
		Bio:            p.Bio,
		ProfilePhoto:   p.ProfilePhoto,
		FollowerCount:  p.FollowerCount,
		FollowingCount: p.FollowingCount,
		Projects:       ProjectList(projects),
		CreatedAt:      p.CreatedAt,
	}
	if includeEmail {
		resp.Email = p.Email
	}
	return resp
}

type UpdateProfileRequest struct {
	Name         *string `json:"name" form:"name"`
	Username     *string `json:"username" form:"username"`
	Bio          *string `json:"bio" form:"bio"`
	ProfilePhoto *string `json:"profilePhoto" form:"profilePhoto"`
}
