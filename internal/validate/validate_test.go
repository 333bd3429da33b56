package validate

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createUser struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestDecodeJSON(t *testing.T) {
	body := `{"username":"ada","email":"ada@example.com","password":"correcthorse"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dst createUser
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "ada", dst.Username)
}

func TestDecodeJSONFieldErrors(t *testing.T) {
	body := `{"username":"","email":"not-an-email","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dst createUser
	err := DecodeJSON(req, &dst)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	fields := fe.Fields()
	assert.Equal(t, "must be provided", fields["username"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8 characters", fields["password"])
	assert.Equal(t,
		"email must be a valid email address; password must be at least 8 characters; username must be provided",
		err.Error())
}

func TestDecodeJSONBadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":`))

	var dst createUser
	assert.ErrorIs(t, DecodeJSON(req, &dst), ErrBadBody)
}
