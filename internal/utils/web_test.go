package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_errors "github.com/civiport-dev/civiport/internal/errors"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=2"`
}

func TestDecodeValidate(t *testing.T) {
	var s sample
	err := DecodeValidate(strings.NewReader(`{"email":"a@b.com","name":"Jo"}`), &s)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", s.Email)
}

func TestDecodeValidateInvalidJSON(t *testing.T) {
	var s sample
	err := DecodeValidate(strings.NewReader(`{broken`), &s)
	require.Error(t, err)
	e, ok := err.(*internal_errors.ErrorWithStatusCode)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, e.StatusCode)
}

func TestDecodeValidateViolation(t *testing.T) {
	var s sample
	err := DecodeValidate(strings.NewReader(`{"email":"not-an-email","name":"Jo"}`), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid email")

	err = DecodeValidate(strings.NewReader(`{"email":"a@b.com","name":"J"}`), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestWriteErrorAndStatusCode(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteErrorAndStatusCode(rr, internal_errors.NotFound("Issue not found"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Issue not found"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	WriteErrorAndStatusCode(rr, assertErr{})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String(), "internal details never leak")
}

type assertErr struct{}

func (assertErr) Error() string { return "pq: secret table does not exist" }
