package handlers

import (
	"context"
	"net/http"

	"github.com/hongminglow/express-accounts/internal/http/respond"
	"github.com/hongminglow/express-accounts/internal/logging"
	"github.com/hongminglow/express-accounts/internal/middleware"
	"github.com/hongminglow/express-accounts/internal/models/dto"
	"github.com/hongminglow/express-accounts/internal/result"
	"github.com/hongminglow/express-accounts/internal/validation"
)

// Accounts is the account service used by UserHandler.
type Accounts interface {
	CreateAccount(ctx context.Context, req dto.CreateUserRequest, v validation.Validator[dto.CreateUserRequest]) (result.Result[string], error)
	ConfirmAccount(ctx context.Context, token string) (result.Result[string], error)
	GenerateConfirmationToken(ctx context.Context, req dto.EmailAndPasswordRequest, v validation.Validator[dto.EmailAndPasswordRequest]) (result.Result[string], error)
	Login(ctx context.Context, req dto.EmailAndPasswordRequest, v validation.Validator[dto.EmailAndPasswordRequest]) (result.Result[string], error)
	Profile(ctx context.Context, userID int64) (result.Result[dto.ProfileResponse], error)
}

// ConfirmationMailer sends confirmation links.
type ConfirmationMailer interface {
	SendConfirmationLink(ctx context.Context, token string) (result.Result[string], error)
}

// UserHandler owns the /users endpoints.
type UserHandler struct {
	accounts Accounts
	mailer   ConfirmationMailer
	bearer   middleware.Middleware
	log      logging.Logger
}

// NewUserHandler constructs the handler. bearer guards the profile route.
func NewUserHandler(accounts Accounts, mailer ConfirmationMailer, bearer middleware.Middleware, log logging.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, mailer: mailer, bearer: bearer, log: log}
}

// Register attaches user routes to the mux.
func (h *UserHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /users", h.handleCreate)
	mux.HandleFunc("POST /users/signup", h.handleSignup)
	mux.HandleFunc("PATCH /users/email-confirmation/{token}", h.handleConfirm)
	mux.HandleFunc("POST /users/generate-confirmation-account-token", h.handleGenerateToken)
	mux.HandleFunc("POST /users/login", h.handleLogin)
	mux.Handle("GET /users/me", h.bearer(http.HandlerFunc(h.handleMe)))
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.accounts.CreateAccount(r.Context(), req, validation.CreateUser{})
	if !handled(w, r, h.log, res, err) {
		return
	}
	respond.JSON(w, http.StatusOK, "user created", dto.TokenResponse{Token: res.Value()})
}

func (h *UserHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.accounts.CreateAccount(r.Context(), req, validation.CreateUser{})
	if !handled(w, r, h.log, created, err) {
		return
	}
	sent, err := h.mailer.SendConfirmationLink(r.Context(), created.Value())
	if !handled(w, r, h.log, sent, err) {
		return
	}
	respond.JSON(w, http.StatusOK, "confirmation email sent", dto.EmailResponse{Email: sent.Value()})
}

func (h *UserHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	res, err := h.accounts.ConfirmAccount(r.Context(), r.PathValue("token"))
	if !handled(w, r, h.log, res, err) {
		return
	}
	respond.JSON(w, http.StatusOK, "account confirmed", dto.TokenResponse{Token: res.Value()})
}

func (h *UserHandler) handleGenerateToken(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailAndPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.accounts.GenerateConfirmationToken(r.Context(), req, validation.EmailAndPassword{})
	if !handled(w, r, h.log, res, err) {
		return
	}
	respond.JSON(w, http.StatusOK, "confirmation token generated", dto.TokenResponse{Token: res.Value()})
}

func (h *UserHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailAndPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.accounts.Login(r.Context(), req, validation.EmailAndPassword{})
	if !handled(w, r, h.log, res, err) {
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.TokenResponse{Token: res.Value()})
}

func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.InternalError(w)
		return
	}
	res, err := h.accounts.Profile(r.Context(), claims.UserID)
	if !handled(w, r, h.log, res, err) {
		return
	}
	respond.JSON(w, http.StatusOK, "profile", res.Value())
}
