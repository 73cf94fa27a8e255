package api

type Task struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	OwnerID     int64   `json:"owner_id"`
}

type Account struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
	Todos    []Task `json:"todos"`
}

// TaskUpdate carries only the fields to change; nil fields are omitted from
// the request body and left untouched by the server.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// ProfileUpdate carries only the fields to change.
type ProfileUpdate struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type taskCreate struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
