package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/barangay-api/internal/models"
	appErrors "github.com/noah-isme/barangay-api/pkg/errors"
)

type fakeAuthSrv struct {
	login        models.LoginRequest
	logoutToken  string
	logoutUser   string
	logoutClient models.LoginRequest
	err          error
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.login = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.LoginResponse{AccessToken: "access", RefreshToken: "refresh", User: models.UserInfo{ID: "res-1", Role: models.RoleResident}}, nil
}

func (f *fakeAuthSrv) RefreshToken(_ context.Context, _ models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return &models.RefreshTokenResponse{AccessToken: "access-2"}, f.err
}

func (f *fakeAuthSrv) Logout(_ context.Context, token, userID string, meta models.LoginRequest) error {
	f.logoutToken, f.logoutUser, f.logoutClient = token, userID, meta
	return f.err
}

func (f *fakeAuthSrv) ChangePassword(_ context.Context, _ string, _ models.ChangePasswordRequest) error {
	return f.err
}

func (f *fakeAuthSrv) Me(_ context.Context, userID string) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID, Role: models.RoleChairman}, f.err
}

func TestAuthHandlerLoginCapturesClient(t *testing.T) {
	srv := &fakeAuthSrv{}
	h := NewAuthHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/auth/login", strings.NewReader(`{"identifier":"juan","password":"secret123"}`), nil)
	c.Request.Header.Set("User-Agent", "barangay-app/1.0")
	c.Request.RemoteAddr = "10.0.0.7:5000"

	h.Login(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "juan", srv.login.Identifier)
	assert.Equal(t, "10.0.0.7", srv.login.IP)
	assert.Equal(t, "barangay-app/1.0", srv.login.UserAgent)
	assert.Equal(t, "access", decodeEnvelope(t, rec).Data["access_token"])
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{err: appErrors.Clone(appErrors.ErrInvalidCredentials, "")})
	c, rec := newTestContext(http.MethodPost, "/auth/login", strings.NewReader(`{"identifier":"juan","password":"nope"}`), nil)

	h.Login(c)

	assert.Equal(t, appErrors.ErrInvalidCredentials.Status, rec.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, decodeEnvelope(t, rec).Error["code"])
}

func TestAuthHandlerLogoutRequiresClaims(t *testing.T) {
	srv := &fakeAuthSrv{}
	h := NewAuthHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/auth/logout", strings.NewReader(`{"refresh_token":"rt"}`), nil)

	h.Logout(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, srv.logoutToken)
}

func TestAuthHandlerLogout(t *testing.T) {
	srv := &fakeAuthSrv{}
	h := NewAuthHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/auth/logout", strings.NewReader(`{"refresh_token":"rt"}`), testResident)
	c.Request = c.Request.WithContext(models.WithClient(c.Request.Context(), models.ClientInfo{IP: "203.0.113.9", UserAgent: "kiosk"}))

	h.Logout(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "rt", srv.logoutToken)
	assert.Equal(t, testResident.UserID, srv.logoutUser)
	assert.Equal(t, "203.0.113.9", srv.logoutClient.IP)
	assert.Equal(t, "kiosk", srv.logoutClient.UserAgent)
}

func TestAuthHandlerLogoutMissingToken(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{})
	c, rec := newTestContext(http.MethodPost, "/auth/logout", strings.NewReader(`{}`), testResident)

	h.Logout(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerMe(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{})
	c, rec := newTestContext(http.MethodGet, "/auth/me", nil, testChairman)

	h.Me(c)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, testChairman.UserID, body.Data["id"])
	assert.Equal(t, string(models.RoleChairman), body.Data["role"])
}
