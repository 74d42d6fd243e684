package mail

import (
	"fmt"
	"time"

	"github.com/flosch/pongo2/v6"
)

const confirmationSubject = "Confirm your account"

const confirmationHTML = `<!DOCTYPE html>
<html>
<body>
<p>Hello {{ email }},</p>
<p>Please confirm your account by opening the link below.</p>
<p><a href="{{ link }}">Confirm my account</a></p>
<p>This link expires on {{ expires_at|date:"2006-01-02 15:04 MST" }}.</p>
</body>
</html>`

const confirmationText = `{% autoescape off %}Hello {{ email }},

Please confirm your account by opening the link below.

{{ link }}

This link expires on {{ expires_at|date:"2006-01-02 15:04 MST" }}.
{% endautoescape %}`

// ConfirmationData fills the confirmation email.
type ConfirmationData struct {
	Email     string
	Link      string
	ExpiresAt time.Time
}

// Renderer builds emails from compiled pongo2 templates.
type Renderer struct {
	html *pongo2.Template
	text *pongo2.Template
}

// NewRenderer compiles the built-in templates.
func NewRenderer() (*Renderer, error) {
	html, err := pongo2.FromString(confirmationHTML)
	if err != nil {
		return nil, fmt.Errorf("compile confirmation html template: %w", err)
	}
	text, err := pongo2.FromString(confirmationText)
	if err != nil {
		return nil, fmt.Errorf("compile confirmation text template: %w", err)
	}
	return &Renderer{html: html, text: text}, nil
}

// Confirmation renders the account confirmation email.
func (r *Renderer) Confirmation(d ConfirmationData) (Message, error) {
	ctx := pongo2.Context{
		"email":      d.Email,
		"link":       d.Link,
		"expires_at": d.ExpiresAt.UTC(),
	}
	html, err := r.html.Execute(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("render confirmation html: %w", err)
	}

	text, err := r.text.Execute(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("render confirmation text: %w", err)
	}

	return Message{
		To:      d.Email,
		Subject: confirmationSubject,
		HTML:    html,
		Text:    text,
	}, nil
}
