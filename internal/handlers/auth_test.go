package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyspark-backend/internal/models"
)

func registerBody(email, username string) map[string]any {
	return map[string]any{
		"email":            email,
		"password":         testPassword,
		"password_confirm": testPassword,
		"username":         username,
		"first_name":       "Ada",
		"last_name":        "Lovelace",
	}
}

func TestRegisterCreatesProfileAndSettings(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", registerBody("ada@example.com", "ada"))
	requireStatus(t, w, http.StatusCreated)

	var user models.User
	require.NoError(t, env.db.First(&user, "email = ?", "ada@example.com").Error)
	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, models.UserTypeCreator, user.UserType)
	assert.True(t, user.IsActive)

	var profiles, settings int64
	require.NoError(t, env.db.Model(&models.UserProfile{}).Where("user_id = ?", user.ID).Count(&profiles).Error)
	require.NoError(t, env.db.Model(&models.UserSettings{}).Where("user_id = ?", user.ID).Count(&settings).Error)
	assert.EqualValues(t, 1, profiles)
	assert.EqualValues(t, 1, settings)
}

func TestRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", registerBody("ada@example.com", "ada"))
	requireStatus(t, w, http.StatusCreated)

	w = env.do(t, http.MethodPost, "/api/v1/auth/register", "", registerBody("ADA@Example.com", "ada2"))
	requireStatus(t, w, http.StatusBadRequest)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	decodeJSON(t, w, &resp)
	assert.Contains(t, resp.Errors, "email")

	var n int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestRegisterDuplicateUsernameCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", registerBody("ada@example.com", "Ada"))
	requireStatus(t, w, http.StatusCreated)

	w = env.do(t, http.MethodPost, "/api/v1/auth/register", "", registerBody("other@example.com", "aDa"))
	requireStatus(t, w, http.StatusBadRequest)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	decodeJSON(t, w, &resp)
	assert.Contains(t, resp.Errors, "username")
}

func TestRegisterPasswordMismatchLeavesNoRows(t *testing.T) {
	env := newTestEnv(t)

	body := registerBody("ada@example.com", "ada")
	body["password_confirm"] = "different-pass"

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	requireStatus(t, w, http.StatusBadRequest)

	var users, profiles int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, env.db.Model(&models.UserProfile{}).Count(&profiles).Error)
	assert.Zero(t, users)
	assert.Zero(t, profiles)
}

func TestRegisterWeakPasswordRejected(t *testing.T) {
	env := newTestEnv(t)

	body := registerBody("ada@example.com", "ada")
	body["password"] = "123456789"
	body["password_confirm"] = "123456789"

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	requireStatus(t, w, http.StatusBadRequest)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	decodeJSON(t, w, &resp)
	assert.Contains(t, resp.Errors, "password")
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada", models.UserTypeCreator)

	wrongPassword := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "ada@example.com", "password": "wrong-password",
	})
	unknownEmail := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "nobody@example.com", "password": testPassword,
	})

	requireStatus(t, wrongPassword, http.StatusUnauthorized)
	requireStatus(t, unknownEmail, http.StatusUnauthorized)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestLoginSucceedsAndTokenWorks(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada", models.UserTypeCreator)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "ADA@example.com", "password": testPassword,
	})
	requireStatus(t, w, http.StatusOK)

	var resp struct {
		Token string `json:"token"`
	}
	decodeJSON(t, w, &resp)
	require.NotEmpty(t, resp.Token)

	me := env.do(t, http.MethodGet, "/api/v1/users/me", resp.Token, nil)
	requireStatus(t, me, http.StatusOK)
}

func TestLoginInactiveAccountRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "ada", models.UserTypeCreator)
	require.NoError(t, env.db.Model(&user).Update("is_active", false).Error)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "ada@example.com", "password": testPassword,
	})
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Contains(t, w.Body.String(), genericLoginError)
}

func TestLoginResponseHidesPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada", models.UserTypeCreator)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "ada@example.com", "password": testPassword,
	})
	requireStatus(t, w, http.StatusOK)
	assert.False(t, strings.Contains(w.Body.String(), `"password"`))
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "ada", models.UserTypeCreator)
	token := env.tokenFor(t, user.ID)

	w := env.do(t, http.MethodPost, "/api/v1/auth/password/change", token, map[string]any{
		"old_password":         testPassword,
		"new_password":         "brand-new-pass",
		"new_password_confirm": "brand-new-pass",
	})
	requireStatus(t, w, http.StatusOK)

	old := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "ada@example.com", "password": testPassword,
	})
	requireStatus(t, old, http.StatusUnauthorized)

	fresh := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "ada@example.com", "password": "brand-new-pass",
	})
	requireStatus(t, fresh, http.StatusOK)
}

func TestChangePasswordWrongOldPassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "ada", models.UserTypeCreator)
	token := env.tokenFor(t, user.ID)

	w := env.do(t, http.MethodPost, "/api/v1/auth/password/change", token, map[string]any{
		"old_password":         "not-the-password",
		"new_password":         "brand-new-pass",
		"new_password_confirm": "brand-new-pass",
	})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestPasswordResetFlowIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ada", models.UserTypeCreator)

	w := env.do(t, http.MethodPost, "/api/v1/auth/password/reset", "", map[string]any{
		"email": "ada@example.com",
	})
	requireStatus(t, w, http.StatusOK)

	// The token is stored under a known key prefix; pull it out of redis the
	// way the delivery worker would read it from the log.
	keys := env.mr.Keys()
	require.Len(t, keys, 1)
	token := strings.TrimPrefix(keys[0], "password_reset:")

	confirm := env.do(t, http.MethodPost, "/api/v1/auth/password/reset/confirm", "", map[string]any{
		"token":                token,
		"new_password":         "reset-pass-123",
		"new_password_confirm": "reset-pass-123",
	})
	requireStatus(t, confirm, http.StatusOK)

	login := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "ada@example.com", "password": "reset-pass-123",
	})
	requireStatus(t, login, http.StatusOK)

	again := env.do(t, http.MethodPost, "/api/v1/auth/password/reset/confirm", "", map[string]any{
		"token":                token,
		"new_password":         "another-pass-123",
		"new_password_confirm": "another-pass-123",
	})
	requireStatus(t, again, http.StatusBadRequest)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/password/reset", "", map[string]any{
		"email": "nobody@example.com",
	})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
	requireStatus(t, w, http.StatusUnauthorized)

	w = env.do(t, http.MethodGet, "/api/v1/users/me", "not-a-token", nil)
	requireStatus(t, w, http.StatusUnauthorized)
}
