package rest_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	f := newAPIFixture(t, "")
	token := f.login(t)

	w := f.do(http.MethodGet, "/api/rewards", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_Rejected(t *testing.T) {
	f := newAPIFixture(t, "")

	w := f.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": testUser, "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "nobody", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": testUser})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout(t *testing.T) {
	f := newAPIFixture(t, "")
	token := f.login(t)

	w := f.do(http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = f.do(http.MethodGet, "/api/rewards", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh(t *testing.T) {
	f := newAPIFixture(t, "")
	token := f.login(t)

	w := f.do(http.MethodPost, "/api/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/rewards", token, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/rewards", resp.Token, nil).Code)
}

func TestRoutesRequireAuth(t *testing.T) {
	f := newAPIFixture(t, "")
	for _, path := range []string{"/api/rewards", "/api/rewards/1", "/api/catalog/export"} {
		assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, path, "", nil).Code, path)
	}
}
