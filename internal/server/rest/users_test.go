package rest

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to the Todo API", decodeBody[messageResponse](t, rec).Message)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	h.srv.pinger = fakePinger{err: errors.New("db down")}
	rec = h.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/register", "", map[string]string{"email": "a@x.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "a@x.com", got["email"])
	assert.Equal(t, true, got["is_active"])
	assert.Equal(t, []any{}, got["todos"])
	assert.NotContains(t, got, "hashed_password")
	assert.NotContains(t, got, "password")
	assert.NotContains(t, rec.Body.String(), "PasswordHash")
}

func TestRegister_Duplicate(t *testing.T) {
	h := newHarness(t)
	h.register("a@x.com", "pw1")

	rec := h.do(http.MethodPost, "/register", "", map[string]string{"email": "a@x.com", "password": "pw2"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody[APIError](t, rec)
	assert.Equal(t, "Email already registered", body.Detail)
	assert.Equal(t, "conflict", body.Code)
}

func TestRegister_Validation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		body any
	}{
		{"malformed json", `{"email":`},
		{"missing password", map[string]string{"email": "a@x.com"}},
		{"bad email", map[string]string{"email": "not-an-email", "password": "pw"}},
		{"password too long", map[string]string{"email": "a@x.com", "password": string(make([]byte, 73))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/register", "", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.Equal(t, "validation_error", decodeBody[APIError](t, rec).Code)
		})
	}
}

func TestRegister_StorageUnavailable(t *testing.T) {
	h := newHarness(t)
	h.backend.failWith = common.ErrStorageUnavailable

	rec := h.do(http.MethodPost, "/register", "", map[string]string{"email": "a@x.com", "password": "pw"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeBody[APIError](t, rec).Detail)
	assert.Contains(t, h.logs.String(), "storage unavailable")
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	h.register("a@x.com", "pw1")

	rec := h.do(http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "pw1"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[tokenResponse](t, rec)
	assert.NotEmpty(t, body.AccessToken)
	assert.Equal(t, "bearer", body.TokenType)
	assert.Nil(t, body.User)

	for _, creds := range []map[string]string{
		{"email": "a@x.com", "password": "wrong"},
		{"email": "nobody@x.com", "password": "pw1"},
	} {
		rec := h.do(http.MethodPost, "/login", "", creds)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", decodeBody[APIError](t, rec).Detail)
	}
}

func TestLogin_LongPasswordIsUnauthorized(t *testing.T) {
	h := newHarness(t)
	h.register("a@x.com", "pw1")

	rec := h.do(http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": strings.Repeat("x", 100)})
	require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
	assert.Equal(t, "Invalid email or password", decodeBody[APIError](t, rec).Detail)

	rec = h.do(http.MethodPost, "/register", "", map[string]string{"email": "b@x.com", "password": strings.Repeat("x", 100)})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGoogleLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := newHarness(t)
		h.backend.federated = &auth.FederatedIdentity{Email: "g@x.com", EmailVerified: true}

		rec := h.do(http.MethodPost, "/login/google", "", map[string]string{"token": "id-token"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decodeBody[tokenResponse](t, rec)
		assert.NotEmpty(t, body.AccessToken)
		assert.Equal(t, "bearer", body.TokenType)
		require.NotNil(t, body.User)
		assert.Equal(t, "g@x.com", body.User.Email)
		assert.NotZero(t, body.User.ID)

		me := h.do(http.MethodGet, "/users/me", body.AccessToken, nil)
		require.Equal(t, http.StatusOK, me.Code)
		assert.Equal(t, body.User.ID, decodeBody[accountResponse](t, me).ID)
	})

	t.Run("email not verified", func(t *testing.T) {
		h := newHarness(t)
		h.backend.federated = &auth.FederatedIdentity{Email: "g@x.com"}

		rec := h.do(http.MethodPost, "/login/google", "", map[string]string{"token": "id-token"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Google account email not verified", decodeBody[APIError](t, rec).Detail)
	})

	t.Run("invalid token", func(t *testing.T) {
		h := newHarness(t)
		h.backend.federatedErr = common.ErrFederatedTokenInvalid

		rec := h.do(http.MethodPost, "/login/google", "", map[string]string{"token": "forged"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid Google token", decodeBody[APIError](t, rec).Detail)
	})

	t.Run("missing token", func(t *testing.T) {
		h := newHarness(t)

		rec := h.do(http.MethodPost, "/login/google", "", map[string]string{})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestMe_RegisterLoginScenario(t *testing.T) {
	h := newHarness(t)
	h.register("a@x.com", "pw1")
	token := h.login("a@x.com", "pw1")

	rec := h.do(http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	me := decodeBody[accountResponse](t, rec)
	assert.Equal(t, "a@x.com", me.Email)
	assert.NotNil(t, me.Todos)
	assert.Empty(t, me.Todos)
}

func TestMe_Unauthorized(t *testing.T) {
	h := newHarness(t)
	h.register("a@x.com", "pw1")
	token := h.login("a@x.com", "pw1")

	other, err := auth.NewTokenService("other-secret", 0)
	require.NoError(t, err)
	forged, err := other.Issue("1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + token},
		{"garbage", "Bearer garbage"},
		{"foreign secret", "Bearer " + forged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := h.do(http.MethodGet, "/users/me", "", nil)
			if tt.header != "" {
				req = h.doWithHeader(http.MethodGet, "/users/me", tt.header)
			}
			require.Equal(t, http.StatusUnauthorized, req.Code)
			assert.Equal(t, "Bearer", req.Header().Get("WWW-Authenticate"))
			assert.Equal(t, "unauthorized", decodeBody[APIError](t, req).Code)
		})
	}
}

func TestMe_ExpiredToken(t *testing.T) {
	h := newHarness(t)
	h.register("a@x.com", "pw1")
	token := h.login("a@x.com", "pw1")

	*h.now = testEpoch.Add(auth.DefaultTokenTTL)

	rec := h.do(http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeBody[APIError](t, rec)
	assert.NotContains(t, body.Detail, "expired", "token error kinds are not disclosed")
}

func TestMe_AccountVanished(t *testing.T) {
	h := newHarness(t)
	h.register("a@x.com", "pw1")
	token := h.login("a@x.com", "pw1")

	delete(h.backend.accounts, 1)

	rec := h.do(http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decodeBody[APIError](t, rec).Detail)
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	h.register("a@x.com", "pw1")
	h.register("b@x.com", "pw2")
	token := h.login("a@x.com", "pw1")

	t.Run("collision", func(t *testing.T) {
		rec := h.do(http.MethodPut, "/users/profile", token, map[string]string{"email": "b@x.com"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Email already registered", decodeBody[APIError](t, rec).Detail)
	})

	t.Run("invalid email", func(t *testing.T) {
		rec := h.do(http.MethodPut, "/users/profile", token, map[string]string{"email": "nope"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("partial update", func(t *testing.T) {
		rec := h.do(http.MethodPut, "/users/profile", token, map[string]string{"password": "pw3"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "a@x.com", decodeBody[accountResponse](t, rec).Email)

		h.login("a@x.com", "pw3")
	})

	t.Run("email change", func(t *testing.T) {
		rec := h.do(http.MethodPut, "/users/profile", token, map[string]string{"email": "c@x.com"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "c@x.com", decodeBody[accountResponse](t, rec).Email)
	})
}

func TestUpdateProfile_KeepsTodos(t *testing.T) {
	h := newHarness(t)
	h.register("a@x.com", "pw1")
	token := h.login("a@x.com", "pw1")

	rec := h.do(http.MethodPost, "/todos/", token, map[string]any{"title": "buy milk"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for name, body := range map[string]map[string]string{
		"email change": {"email": "c@x.com"},
		"empty update": {},
	} {
		t.Run(name, func(t *testing.T) {
			rec := h.do(http.MethodPut, "/users/profile", token, body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			got := decodeBody[accountResponse](t, rec)
			require.Len(t, got.Todos, 1)
			assert.Equal(t, "buy milk", got.Todos[0].Title)
		})
	}
}

func TestDeleteMe(t *testing.T) {
	h := newHarness(t)
	h.register("a@x.com", "pw1")
	token := h.login("a@x.com", "pw1")

	rec := h.do(http.MethodPost, "/todos", token, map[string]string{"title": "t"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodDelete, "/users/me", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, h.backend.tasks)

	rec = h.do(http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
