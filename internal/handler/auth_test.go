package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maisonnoir/storefront/internal/authapi"
)

// --- Identity service stub ---

type identityStub struct {
	user       authapi.User
	password   string
	accessOK   string
	registered *authapi.Registration
}

func newIdentityStub() *identityStub {
	return &identityStub{
		user: authapi.User{
			ID:        "u-1",
			Email:     "claire@maisonnoir.example",
			FirstName: "Claire",
			LastName:  "Dubois",
		},
		password: "atelier-secret",
		accessOK: "access-1",
	}
}

func (s *identityStub) handler() http.Handler {
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
	ok := func(w http.ResponseWriter, data any) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
	}
	fail := func(w http.ResponseWriter, status int, msg string) {
		writeJSON(w, status, map[string]any{"success": false, "error": msg})
	}
	authed := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer "+s.accessOK
	}

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds authapi.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email != s.user.Email || creds.Password != s.password {
			fail(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		ok(w, map[string]any{"user": s.user, "accessToken": s.accessOK, "refreshToken": "refresh-1"})
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var reg authapi.Registration
		_ = json.NewDecoder(r.Body).Decode(&reg)
		if reg.Email == s.user.Email {
			fail(w, http.StatusConflict, "email already registered")
			return
		}
		s.registered = &reg
		created := authapi.User{ID: "u-2", Email: reg.Email, FirstName: reg.FirstName, LastName: reg.LastName}
		ok(w, map[string]any{"user": created, "accessToken": s.accessOK, "refreshToken": "refresh-1"})
	})
	mux.HandleFunc("GET /auth/verify", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ok(w, map[string]any{"user": s.user})
	})
	mux.HandleFunc("PUT /auth/profile", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			fail(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var update authapi.ProfileUpdate
		_ = json.NewDecoder(r.Body).Decode(&update)
		updated := s.user
		if update.FirstName != "" {
			updated.FirstName = update.FirstName
		}
		updated.Phone = update.Phone
		s.user = updated
		ok(w, map[string]any{"user": updated})
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusUnauthorized, "refresh token rejected")
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		ok(w, map[string]any{"loggedOut": true})
	})

	return mux
}

func newAuthFixture(t *testing.T) (*fixture, *identityStub) {
	t.Helper()

	stub := newIdentityStub()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	return newFixture(t, withIdentityURL(srv.URL)), stub
}

// --- Tests ---

func TestLogin(t *testing.T) {
	f, _ := newAuthFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/login", uuid.New().String(), authapi.Credentials{
		Email:    "claire@maisonnoir.example",
		Password: "atelier-secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var view userView
	env := decodeResp(t, rec, &view)
	assert.True(t, env.Success)
	assert.Equal(t, "u-1", view.ID)
	assert.Equal(t, "claire@maisonnoir.example", view.Email)
	assert.Equal(t, "Claire", view.FirstName)
}

func TestLogin_BadPassword(t *testing.T) {
	f, _ := newAuthFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/login", uuid.New().String(), authapi.Credentials{
		Email:    "claire@maisonnoir.example",
		Password: "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	env := decodeResp(t, rec, nil)
	assert.False(t, env.Success)
	assert.Equal(t, "invalid credentials", env.Error)
}

func TestRegister(t *testing.T) {
	f, stub := newAuthFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/register", uuid.New().String(), authapi.Registration{
		Email:     "new@maisonnoir.example",
		Password:  "fresh-secret",
		FirstName: "Anouk",
		LastName:  "Mertens",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var view userView
	decodeResp(t, rec, &view)
	assert.Equal(t, "new@maisonnoir.example", view.Email)
	require.NotNil(t, stub.registered)
	assert.Equal(t, "Anouk", stub.registered.FirstName)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f, _ := newAuthFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/register", uuid.New().String(), authapi.Registration{
		Email:    "claire@maisonnoir.example",
		Password: "whatever",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	env := decodeResp(t, rec, nil)
	assert.Equal(t, "email already registered", env.Error)
}

func TestMe(t *testing.T) {
	f, _ := newAuthFixture(t)
	sid := uuid.New().String()

	f.do(t, http.MethodPost, "/api/auth/login", sid, authapi.Credentials{
		Email:    "claire@maisonnoir.example",
		Password: "atelier-secret",
	})

	rec := f.do(t, http.MethodGet, "/api/auth/me", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view userView
	decodeResp(t, rec, &view)
	assert.Equal(t, "claire@maisonnoir.example", view.Email)
}

func TestMe_NotLoggedIn(t *testing.T) {
	f, _ := newAuthFixture(t)

	rec := f.do(t, http.MethodGet, "/api/auth/me", uuid.New().String(), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	env := decodeResp(t, rec, nil)
	assert.Equal(t, "authentication required", env.Error)
}

func TestUpdateProfile(t *testing.T) {
	f, _ := newAuthFixture(t)
	sid := uuid.New().String()

	f.do(t, http.MethodPost, "/api/auth/login", sid, authapi.Credentials{
		Email:    "claire@maisonnoir.example",
		Password: "atelier-secret",
	})

	rec := f.do(t, http.MethodPut, "/api/auth/profile", sid, authapi.ProfileUpdate{Phone: "+33 6 12 34 56 78"})
	require.Equal(t, http.StatusOK, rec.Code)

	var view userView
	decodeResp(t, rec, &view)
	assert.Equal(t, "+33 6 12 34 56 78", view.Phone)
}

func TestUpdateProfile_NotLoggedIn(t *testing.T) {
	f, _ := newAuthFixture(t)

	rec := f.do(t, http.MethodPut, "/api/auth/profile", uuid.New().String(), authapi.ProfileUpdate{Phone: "+31 6 00 00 00 00"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	f, _ := newAuthFixture(t)
	sid := uuid.New().String()

	f.do(t, http.MethodPost, "/api/auth/login", sid, authapi.Credentials{
		Email:    "claire@maisonnoir.example",
		Password: "atelier-secret",
	})

	rec := f.do(t, http.MethodPost, "/api/auth/logout", sid, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The session no longer resolves an account.
	rec = f.do(t, http.MethodGet, "/api/auth/me", sid, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionHeader_IsolatesAuth(t *testing.T) {
	f, _ := newAuthFixture(t)
	loggedIn := uuid.New().String()
	anonymous := uuid.New().String()

	f.do(t, http.MethodPost, "/api/auth/login", loggedIn, authapi.Credentials{
		Email:    "claire@maisonnoir.example",
		Password: "atelier-secret",
	})

	rec := f.do(t, http.MethodGet, "/api/auth/me", anonymous, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
