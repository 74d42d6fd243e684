package handlers

import (
	"net/http"

	"github.com/hongminglow/express-accounts/internal/http/respond"
	"github.com/hongminglow/express-accounts/internal/logging"
	"github.com/hongminglow/express-accounts/internal/models/dto"
)

// EmailHandler owns the /email endpoints.
type EmailHandler struct {
	mailer ConfirmationMailer
	log    logging.Logger
}

// NewEmailHandler constructs the handler.
func NewEmailHandler(mailer ConfirmationMailer, log logging.Logger) *EmailHandler {
	return &EmailHandler{mailer: mailer, log: log}
}

// Register attaches email routes to the mux.
func (h *EmailHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /email/send-confirmation-token", h.handleSendConfirmationToken)
}

func (h *EmailHandler) handleSendConfirmationToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.mailer.SendConfirmationLink(r.Context(), req.Token)
	if !handled(w, r, h.log, res, err) {
		return
	}
	respond.NoContent(w)
}
