package result

// Code is a machine-readable failure code.
type Code string

const (
	CodeUnknown            Code = "unknown"
	CodeInvalidInput       Code = "invalid_input"
	CodeEmailAlreadyExists Code = "email_already_exists"
	CodeInvalidJwtToken    Code = "invalid_jwt_token"
)

// Type is the failure category, used by the HTTP layer to pick a status.
type Type string

const (
	TypeUnknown                      Type = "unknown"
	TypeInputValidationError         Type = "input_validation_error"
	TypeBusinessLogicValidationError Type = "business_logic_validation_error"
	TypeUnauthorized                 Type = "unauthorized"
)

// Message is a client-facing message paired with a suggested action.
type Message struct {
	Message string `json:"message"`
	Action  string `json:"action"`
}

// Error is a recoverable, structured failure. It deliberately does not
// implement the error interface: infrastructure faults travel as plain errors.
type Error struct {
	Code     Code      `json:"code"`
	Type     Type      `json:"type"`
	Messages []Message `json:"messages"`
}

// NewError builds an Error from a code, a type and messages in display order.
func NewError(code Code, typ Type, messages ...Message) *Error {
	if messages == nil {
		messages = []Message{}
	}
	return &Error{Code: code, Type: typ, Messages: messages}
}
