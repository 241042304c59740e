package auth

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/ifooddash/dashboard/internal/dependency"
	"github.com/ifooddash/dashboard/internal/entity"
)

var errDuplicate = fmt.Errorf("duplicate entry")

// stubUsers keeps users in memory, keyed by email.
type stubUsers struct {
	byEmail map[string]*entity.User
	nextID  int
}

func newStubUsers() *stubUsers {
	return &stubUsers{byEmail: map[string]*entity.User{}, nextID: 1}
}

func (s *stubUsers) AddUser(_ context.Context, name, email, passwordHash string) (*entity.User, error) {
	if _, ok := s.byEmail[email]; ok {
		return nil, errDuplicate
	}
	u := &entity.User{ID: s.nextID, Name: name, Email: email, PasswordHash: passwordHash}
	s.nextID++
	s.byEmail[email] = u
	return u, nil
}

func (s *stubUsers) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (s *stubUsers) GetUserById(_ context.Context, id int) (*entity.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

// stubRepo satisfies dependency.Repository for handler tests; only the
// methods the auth server touches are implemented.
type stubRepo struct {
	dependency.Repository
	users *stubUsers
}

func (s *stubRepo) Users() dependency.Users { return s.users }

func (s *stubRepo) IsErrUniqueViolation(err error) bool {
	return err == errDuplicate
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	srv, err := New(&Config{
		JWTSecret: "test-secret",
		JWTTTL:    "1h",
	}, &stubRepo{users: newStubUsers()})
	assert.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/auth", srv.Routes)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	b, err := json.Marshal(body)
	assert.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	assert.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/auth/register", map[string]string{
		"name":     "Ana",
		"email":    "ana@example.com",
		"password": "s3cret",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		User  entity.User `json:"user"`
		Token string      `json:"token"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "ana@example.com", out.User.Email)
	assert.NotEmpty(t, out.Token)

	// same email again conflicts
	resp = postJSON(t, ts.URL+"/auth/register", map[string]string{
		"name":     "Ana Again",
		"email":    "ana@example.com",
		"password": "s3cret",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/auth/register", map[string]string{
		"email": "no-name@example.com",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginDoesNotLeakAccounts(t *testing.T) {
	srv, ts := newTestServer(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	assert.NoError(t, err)
	_, err = srv.rep.Users().AddUser(context.Background(), "Ana", "ana@example.com", string(hash))
	assert.NoError(t, err)

	// wrong password and unknown email produce identical responses
	wrongPwd := postJSON(t, ts.URL+"/auth/login", map[string]string{
		"email": "ana@example.com", "password": "wrong",
	})
	defer wrongPwd.Body.Close()
	unknown := postJSON(t, ts.URL+"/auth/login", map[string]string{
		"email": "ghost@example.com", "password": "wrong",
	})
	defer unknown.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, wrongPwd.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, unknown.StatusCode)

	var a, b map[string]any
	assert.NoError(t, json.NewDecoder(wrongPwd.Body).Decode(&a))
	assert.NoError(t, json.NewDecoder(unknown.Body).Decode(&b))
	assert.Equal(t, a, b)

	ok := postJSON(t, ts.URL+"/auth/login", map[string]string{
		"email": "ana@example.com", "password": "right",
	})
	defer ok.Body.Close()
	assert.Equal(t, http.StatusOK, ok.StatusCode)
}

func TestWithAuthRejectsBeforeHandler(t *testing.T) {
	srv, _ := newTestServer(t)

	called := false
	handler := srv.WithAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, header := range []string{"", "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/metrics/monthly-revenue", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	assert.False(t, called)
}

func TestMe(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/auth/register", map[string]string{
		"name":     "Ana",
		"email":    "ana@example.com",
		"password": "s3cret",
	})
	var out struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth/me", nil)
	assert.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+out.Token)
	me, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	defer me.Body.Close()
	assert.Equal(t, http.StatusOK, me.StatusCode)

	var user entity.User
	assert.NoError(t, json.NewDecoder(me.Body).Decode(&user))
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
}
