// Package validation holds the request validators used by the account
// service. Rules are expressed with ozzo-validation; failures are converted to
// ordered result messages, one per invalid field.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/hongminglow/express-accounts/internal/models/dto"
	"github.com/hongminglow/express-accounts/internal/result"
)

// Validator checks a request value. A nil error means the value is valid.
type Validator[T any] interface {
	Validate(value T) error
}

// Func adapts a function to the Validator interface.
type Func[T any] func(value T) error

func (f Func[T]) Validate(value T) error { return f(value) }

var (
	emailRules = []validation.Rule{
		validation.Required.Error("Email cannot be empty."),
		is.Email.Error("Invalid email format."),
	}
	usernameRules = []validation.Rule{
		validation.Required.Error("Username cannot be empty."),
		validation.RuneLength(3, 30).Error("Username must be between 3 and 30 characters."),
	}
	passwordRules = []validation.Rule{
		validation.Required.Error("Password cannot be empty."),
		validation.RuneLength(6, 100).Error("Password must be between 6 and 100 characters."),
	}
)

// CreateUser validates sign-up requests.
type CreateUser struct{}

func (CreateUser) Validate(r dto.CreateUserRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, emailRules...),
		validation.Field(&r.Username, usernameRules...),
		validation.Field(&r.Password, passwordRules...),
	)
}

// EmailAndPassword validates login and token re-issue requests.
type EmailAndPassword struct{}

func (EmailAndPassword) Validate(r dto.EmailAndPasswordRequest) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, emailRules...),
		validation.Field(&r.Password, passwordRules...),
	)
}

// Messages converts a validation error into client messages sorted by field
// name. A rule that failed to run (an internal error) is returned as an error
// instead, since it is not the client's fault.
func Messages(err error) ([]result.Message, error) {
	if err == nil {
		return nil, nil
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return nil, fmt.Errorf("run validation rules: %w", internal.InternalError())
	}

	var fields validation.Errors
	if !errors.As(err, &fields) {
		return []result.Message{{Message: err.Error(), Action: "Check the fields."}}, nil
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]result.Message, 0, len(names))
	for _, name := range names {
		out = append(out, result.Message{
			Message: fields[name].Error(),
			Action:  "Fix the " + strings.ToLower(name) + " field.",
		})
	}
	return out, nil
}
