package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobarber/gobarber/internal/models"
)

func TestSignUpAndSignIn(t *testing.T) {
	ts := newTestServer(t)
	id := ts.signUp("John Doe", "john@example.com", "123456")
	assert.Len(t, id, 26)

	w := ts.do(http.MethodPost, "/sessions", map[string]string{"email": "john@example.com", "password": "123456"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SessionResponse
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, UserResponse{ID: id, Name: "John Doe", Email: "john@example.com"}, resp.User)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	ts.signUp("John Doe", "john@example.com", "123456")

	w := ts.do(http.MethodPost, "/users", map[string]string{"name": "Other", "email": "john@example.com", "password": "123456"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email address already used", errorMessage(t, w))
}

func TestSignIn_WrongCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.signUp("John Doe", "john@example.com", "123456")

	for _, body := range []map[string]string{
		{"email": "john@example.com", "password": "wrong"},
		{"email": "nobody@example.com", "password": "123456"},
	} {
		w := ts.do(http.MethodPost, "/sessions", body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, invalidCredentials, errorMessage(t, w))
	}
}

func avatarRequest(t *testing.T, filename, content, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPatch, "/users/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUpdateAvatar(t *testing.T) {
	ts := newTestServer(t)
	id := ts.signUp("John Doe", "john@example.com", "123456")
	token := ts.signIn("john@example.com", "123456")

	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, avatarRequest(t, "me.png", "first", token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var user UserResponse
	decode(t, w, &user)
	require.True(t, strings.HasPrefix(user.AvatarURL, "http://api.test/files/"), user.AvatarURL)
	assert.True(t, strings.HasSuffix(user.AvatarURL, "-me.png"))

	// The file is served back under /files
	path := strings.TrimPrefix(user.AvatarURL, "http://api.test")
	served := ts.do(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, "first", served.Body.String())

	var stored models.User
	require.NoError(t, models.FindByID(ts.db, id, &stored))
	firstFile := stored.Avatar

	// A second upload replaces and removes the first file
	w = httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, avatarRequest(t, "me.png", "second", token))
	require.Equal(t, http.StatusOK, w.Code)

	_, err := os.Stat(filepath.Join(ts.srv.config.Storage.Dir, firstFile))
	assert.True(t, os.IsNotExist(err), "previous avatar should be removed")
}

func TestUpdateAvatar_Rejects(t *testing.T) {
	ts := newTestServer(t)
	ts.signUp("John Doe", "john@example.com", "123456")
	token := ts.signIn("john@example.com", "123456")

	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, avatarRequest(t, "script.sh", "#!/bin/sh", token))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPatch, "/users/avatar", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "avatar file is required", errorMessage(t, w))
}

func TestProfile(t *testing.T) {
	ts := newTestServer(t)
	id := ts.signUp("John Doe", "john@example.com", "123456")
	token := ts.signIn("john@example.com", "123456")

	w := ts.do(http.MethodGet, "/profile", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var user UserResponse
	decode(t, w, &user)
	assert.Equal(t, id, user.ID)

	w = ts.do(http.MethodPut, "/profile", map[string]string{"name": "John Tre", "email": "tre@example.com"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &user)
	assert.Equal(t, "John Tre", user.Name)
	assert.Equal(t, "tre@example.com", user.Email)

	// Password untouched
	ts.signIn("tre@example.com", "123456")
}

func TestProfile_EmailTaken(t *testing.T) {
	ts := newTestServer(t)
	ts.signUp("John Doe", "john@example.com", "123456")
	ts.signUp("Jane Roe", "jane@example.com", "123456")
	token := ts.signIn("john@example.com", "123456")

	w := ts.do(http.MethodPut, "/profile", map[string]string{"name": "John", "email": "jane@example.com"}, token)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Keeping your own email is fine
	w = ts.do(http.MethodPut, "/profile", map[string]string{"name": "John", "email": "john@example.com"}, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfile_ChangePassword(t *testing.T) {
	ts := newTestServer(t)
	ts.signUp("John Doe", "john@example.com", "123456")
	token := ts.signIn("john@example.com", "123456")

	base := map[string]string{"name": "John Doe", "email": "john@example.com", "password": "abcdef", "password_confirmation": "abcdef"}

	w := ts.do(http.MethodPut, "/profile", base, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You need to inform the old password to set a new password", errorMessage(t, w))

	base["old_password"] = "wrong"
	w = ts.do(http.MethodPut, "/profile", base, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Old password does not match", errorMessage(t, w))

	base["old_password"] = "123456"
	w = ts.do(http.MethodPut, "/profile", base, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	ts.signIn("john@example.com", "abcdef")
}
