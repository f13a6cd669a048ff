package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func authRequest(t *testing.T, e *echo.Echo, path string, body any) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: testSecret}
	e := echo.New()

	creds := map[string]string{"username": "diner", "password": "secret"}

	rec, c := authRequest(t, e, "/api/v1/register", creds)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, c = authRequest(t, e, "/api/v1/login", creds)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	require.Equal(t, "accessToken", cookies[0].Name)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: testSecret}
	e := echo.New()

	creds := map[string]string{"username": "diner", "password": "secret"}

	_, c := authRequest(t, e, "/api/v1/register", creds)
	require.NoError(t, h.Register(c))

	_, c = authRequest(t, e, "/api/v1/register", creds)
	err := h.Register(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	db := newTestDB(t)
	h := &AuthHandler{DB: db, JWTSecret: testSecret}
	e := echo.New()

	_, c := authRequest(t, e, "/api/v1/register", map[string]string{"username": "diner", "password": "secret"})
	require.NoError(t, h.Register(c))

	_, c = authRequest(t, e, "/api/v1/login", map[string]string{"username": "diner", "password": "nope"})
	err := h.Login(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}
