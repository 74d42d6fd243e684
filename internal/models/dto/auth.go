package dto

import "github.com/hongminglow/express-accounts/internal/models"

type CreateUserRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type EmailAndPasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type EmailResponse struct {
	Email string `json:"email"`
}

// ProfileResponse is the public view of the authenticated user.
type ProfileResponse struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	Confirmed bool        `json:"confirmed"`
}
