package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hongminglow/express-accounts/internal/auth"
	"github.com/hongminglow/express-accounts/internal/config"
	"github.com/hongminglow/express-accounts/internal/http/handlers"
	"github.com/hongminglow/express-accounts/internal/logging"
	"github.com/hongminglow/express-accounts/internal/mail"
	"github.com/hongminglow/express-accounts/internal/middleware"
	"github.com/hongminglow/express-accounts/internal/service"
	"github.com/hongminglow/express-accounts/internal/storage"
)

// Deps are the long-lived resources the server is built on. A nil Consumed
// records confirmation tokens through Store transactions.
type Deps struct {
	Store    storage.Store
	Consumed storage.ConsumedTokenStore
	DB       storage.Pinger
	Sender   mail.Sender
	Log      logging.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) (*Server, error) {
	handler, err := NewHandler(cfg, deps)
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}, nil
}

// NewHandler builds the routed, middleware-wrapped handler.
func NewHandler(cfg config.Config, deps Deps) (http.Handler, error) {
	log := deps.Log
	if log == nil {
		log = logging.Discard()
	}

	sender := deps.Sender
	if sender == nil {
		if cfg.SMTP.Host == "" {
			sender = mail.LogSender{Log: log.With("component", "mail")}
		} else {
			smtp, err := mail.NewSMTPSender(mail.SMTPConfig(cfg.SMTP))
			if err != nil {
				return nil, fmt.Errorf("init smtp sender: %w", err)
			}
			sender = smtp
		}
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("init mail templates: %w", err)
	}

	tokens := auth.NewTokenManager(tokenOptions(cfg.Confirmation), tokenOptions(cfg.Authentication))

	opts := []service.AccountOption{
		service.WithPasswordCost(cfg.BcryptCost),
		service.WithLogger(log.With("component", "accounts")),
	}
	if deps.Consumed != nil {
		opts = append(opts, service.WithConsumedTokens(deps.Consumed))
	} else {
		opts = append(opts, service.WithTxConsumedTokens())
	}
	accounts := service.NewAccountService(deps.Store, auth.BcryptHasher{}, tokens, opts...)
	emails := service.NewEmailService(tokens, renderer, sender, cfg.ConfirmationURLBase, log.With("component", "email"))

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now(), deps.DB).Register(mux)
	handlers.NewUserHandler(accounts, emails, middleware.Bearer(tokens, cfg.Authentication.RequireHTTPS), log).Register(mux)
	handlers.NewEmailHandler(emails, log).Register(mux)

	return middleware.Chain(mux,
		middleware.RequestID(),
		middleware.Logging(log),
		middleware.Recover(log),
		middleware.CORS(cfg.CORSOrigins),
	), nil
}

func tokenOptions(c config.TokenConfig) auth.TokenOptions {
	return auth.TokenOptions{
		Secret:       c.Secret,
		Issuer:       c.Issuer,
		Audience:     c.Audience,
		RequireHTTPS: c.RequireHTTPS,
		TTL:          c.TTL,
	}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
