package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name   string `json:"name" validate:"required,max=5"`
	Status string `json:"status" validate:"omitempty,oneof=vacant owner rented"`
	Ref    string `json:"ref" validate:"omitempty,uuid"`
}

func bindRequest(t *testing.T, body string) (*httptest.ResponseRecorder, bool, error) {
	t.Helper()
	e := echo.New()
	e.Validator = NewRequestValidator()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	var into sampleRequest
	ok, err := BindAndValidate(e.NewContext(req, rec), &into)
	return rec, ok, err
}

func TestBindAndValidate_Valid(t *testing.T) {
	rec, ok, err := bindRequest(t, `{"name":"abc","status":"owner"}`)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestBindAndValidate_ReportsJSONFieldNames(t *testing.T) {
	rec, ok, err := bindRequest(t, `{"name":"","status":"empty","ref":"nope"}`)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, map[string]string{
		"name":   "is required",
		"status": "must be one of: vacant owner rented",
		"ref":    "must be a valid UUID",
	}, resp.Error.Details)
}

func TestBindAndValidate_MaxLength(t *testing.T) {
	rec, ok, _ := bindRequest(t, `{"name":"too long"}`)
	assert.False(t, ok)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "must be at most 5 characters", resp.Error.Details["name"])
}

func TestBindAndValidate_MalformedBody(t *testing.T) {
	rec, ok, err := bindRequest(t, `{"name":`)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "CLIENT_ERROR")
}
