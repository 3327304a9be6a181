package handler

import (
	"time"

	"github.com/todoapp/tasktracker/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	Email       string `json:"email"        form:"email"        validate:"required,email"`
	Username    string `json:"username"     form:"username"     validate:"required,max=64"`
	FirstName   string `json:"firstname"    form:"firstname"`
	LastName    string `json:"lastname"     form:"lastname"`
	PhoneNumber string `json:"phone_number" form:"phone_number"`
	Password    string `json:"password"     form:"password"     validate:"required"`
	Password2   string `json:"password2"    form:"password2"    validate:"required"`
}

// loginRequest accepts the username under either field name; browser forms
// post it as email.
type loginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type addressResponse struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`
	Zipcode  string `json:"zipcode"`
	AptNum   *int   `json:"apt_num,omitempty"`
}

type userResponse struct {
	ID          int64            `json:"id"`
	Username    string           `json:"username"`
	Email       string           `json:"email"`
	FirstName   string           `json:"firstname"`
	LastName    string           `json:"lastname"`
	PhoneNumber string           `json:"phone_number,omitempty"`
	IsActive    bool             `json:"is_active"`
	Address     *addressResponse `json:"address,omitempty"`
}

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		IsActive:    u.IsActive,
	}
	if a := u.Address; a != nil {
		resp.Address = &addressResponse{
			Address1: a.Address1,
			Address2: a.Address2,
			City:     a.City,
			State:    a.State,
			Country:  a.Country,
			Zipcode:  a.Zipcode,
			AptNum:   a.AptNum,
		}
	}
	return resp
}

// --- Todos ---

type todoRequest struct {
	Title       string `json:"title"       form:"title"       validate:"required,max=200"`
	Description string `json:"description" form:"description" validate:"max=2000"`
	Priority    int    `json:"priority"    form:"priority"    validate:"required,min=1,max=5"`
	Complete    *bool  `json:"complete"    form:"complete"`
}

type todoResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
}

func toTodoResponse(t *domain.Todo) todoResponse {
	return todoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Complete:    t.Complete,
	}
}
