package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hongminglow/express-accounts/internal/logging"
	"github.com/hongminglow/express-accounts/internal/mail"
	"github.com/hongminglow/express-accounts/internal/result"
)

// ConfirmationPath is the route, relative to the public base URL, that
// redeems a confirmation token.
const ConfirmationPath = "/users/email-confirmation/"

// Renderer builds confirmation emails.
type Renderer interface {
	Confirmation(d mail.ConfirmationData) (mail.Message, error)
}

// EmailService delivers confirmation links.
type EmailService struct {
	tokens   Tokens
	renderer Renderer
	sender   mail.Sender
	linkBase string
	log      logging.Logger
}

// NewEmailService wires the service. linkBase is the public URL the
// confirmation route is served under.
func NewEmailService(tokens Tokens, renderer Renderer, sender mail.Sender, linkBase string, log logging.Logger) *EmailService {
	if log == nil {
		log = logging.Discard()
	}
	return &EmailService{
		tokens:   tokens,
		renderer: renderer,
		sender:   sender,
		linkBase: strings.TrimRight(linkBase, "/"),
		log:      log,
	}
}

// SendConfirmationLink emails the confirmation link for token to the address
// it was issued for, and returns that address.
func (s *EmailService) SendConfirmationLink(ctx context.Context, token string) (result.Result[string], error) {
	validated := s.tokens.ValidateConfirmationToken(token)
	if !validated.IsSuccess() {
		return result.FailureFrom[string](validated), nil
	}

	claims, err := s.tokens.ExtractClaims(validated.Value())
	if err != nil {
		return result.Result[string]{}, fmt.Errorf("send confirmation link: %w", err)
	}

	msg, err := s.renderer.Confirmation(mail.ConfirmationData{
		Email:     claims.Email,
		Link:      s.ConfirmationLink(token),
		ExpiresAt: validated.Value().ExpiresAt(),
	})
	if err != nil {
		return result.Result[string]{}, fmt.Errorf("send confirmation link: %w", err)
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		return result.Result[string]{}, fmt.Errorf("send confirmation link: %w", err)
	}

	s.log.Info(ctx, "confirmation link sent", "user_id", claims.UserID)
	return result.Success(claims.Email), nil
}

// ConfirmationLink returns the public URL that redeems token.
func (s *EmailService) ConfirmationLink(token string) string {
	return s.linkBase + ConfirmationPath + url.PathEscape(token)
}
