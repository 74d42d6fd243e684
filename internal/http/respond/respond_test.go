package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/express-accounts/internal/result"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  *result.Error
		want int
	}{
		{result.NewError(result.CodeInvalidInput, result.TypeInputValidationError), http.StatusBadRequest},
		{result.NewError(result.CodeEmailAlreadyExists, result.TypeBusinessLogicValidationError), http.StatusConflict},
		{result.NewError(result.CodeInvalidInput, result.TypeBusinessLogicValidationError), http.StatusBadRequest},
		{result.NewError(result.CodeInvalidJwtToken, result.TypeUnauthorized), http.StatusUnauthorized},
		{result.NewError(result.CodeUnknown, result.TypeUnknown), http.StatusInternalServerError},
		{nil, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err))
	}
}

func TestFailure_Body(t *testing.T) {
	rec := httptest.NewRecorder()
	Failure(rec, result.NewError(result.CodeInvalidJwtToken, result.TypeUnauthorized, result.Message{Message: "m", Action: "a"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(401), body["code"])
	assert.NotContains(t, body, "data")

	e := body["error"].(map[string]any)
	assert.Equal(t, "invalid_jwt_token", e["code"])
	assert.Equal(t, "unauthorized", e["type"])
	assert.Equal(t, []any{map[string]any{"message": "m", "action": "a"}}, e["messages"])
}

func TestInternalError_FixedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	InternalError(rec)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":500,"message":"An internal server error has occurred."}`, rec.Body.String())
}

func TestJSON_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, "ok", map[string]string{"token": "abc"})

	assert.JSONEq(t, `{"code":200,"message":"ok","data":{"token":"abc"}}`, rec.Body.String())
}
