package rest

import (
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// Login leaves the length check to the password comparison.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

type profileUpdateRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=1,max=72"`
}

type taskCreateRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
}

type taskUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *userSummary `json:"user,omitempty"`
}

type userSummary struct {
	Email string `json:"email"`
	ID    int64  `json:"id"`
}

type accountResponse struct {
	ID       int64          `json:"id"`
	Email    string         `json:"email"`
	IsActive bool           `json:"is_active"`
	Todos    []taskResponse `json:"todos"`
}

type taskResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	OwnerID     int64   `json:"owner_id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func newAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		ID:       a.ID,
		Email:    a.Email,
		IsActive: a.IsActive,
		Todos:    newTaskResponses(a.Tasks),
	}
}

func newTaskResponse(t *models.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		OwnerID:     t.OwnerID,
	}
}

// newTaskResponses never returns nil so lists render as [].
func newTaskResponses(tasks []*models.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResponse(t))
	}
	return out
}
