package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"

	"github.com/ifooddash/dashboard/internal/apisrv/respond"
	"github.com/ifooddash/dashboard/internal/auth/jwt"
	"github.com/ifooddash/dashboard/internal/dependency"
	"github.com/ifooddash/dashboard/internal/entity"
	"github.com/ifooddash/dashboard/internal/middleware"
	"github.com/ifooddash/dashboard/internal/ratelimit"
)

type ctxKey int

const userIDKey ctxKey = iota

// invalidCredentials is returned for both unknown emails and wrong
// passwords so callers can't enumerate accounts.
const invalidCredentials = "invalid credentials"

// Config contains the configuration for the auth server.
type Config struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	JWTTTL     string `mapstructure:"jwt_ttl"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

// Server handles registration, login and token verification.
type Server struct {
	rep     dependency.Repository
	jwtAuth *jwtauth.JWTAuth
	jwtTTL  time.Duration
	cost    int
	limiter *ratelimit.AuthLimiter
}

// New creates a new auth server.
func New(c *Config, rep dependency.Repository) (*Server, error) {
	if c.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is not set")
	}
	ttl, err := time.ParseDuration(c.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("can't parse jwt ttl: %w", err)
	}
	cost := c.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Server{
		rep:     rep,
		jwtAuth: jwtauth.New("HS256", []byte(c.JWTSecret), nil),
		jwtTTL:  ttl,
		cost:    cost,
		limiter: ratelimit.NewAuthLimiter(),
	}, nil
}

// Routes mounts the unauthenticated credential endpoints.
func (s *Server) Routes(r chi.Router) {
	r.Post("/register", s.register)
	r.Post("/login", s.login)
	r.With(s.WithAuth).Get("/me", s.me)
}

type registerRequest struct {
	entity.UserInsert
}

func (rr *registerRequest) Bind(r *http.Request) error {
	if _, err := govalidator.ValidateStruct(rr.UserInsert); err != nil {
		return err
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email" valid:"required,email"`
	Password string `json:"password" valid:"required"`
}

func (lr *loginRequest) Bind(r *http.Request) error {
	if _, err := govalidator.ValidateStruct(lr); err != nil {
		return err
	}
	return nil
}

type authResponse struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if err := s.limiter.CheckRegister(middleware.GetClientIP(r)); err != nil {
		render.Render(w, r, respond.ErrTooManyRequests(err.Error()))
		return
	}

	req := &registerRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, respond.ErrInvalidRequest(err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		slog.Default().ErrorContext(r.Context(), "can't hash password",
			slog.String("err", err.Error()))
		render.Render(w, r, respond.ErrInternal(err))
		return
	}

	user, err := s.rep.Users().AddUser(r.Context(), req.Name, strings.ToLower(req.Email), string(hash))
	if err != nil {
		if s.rep.IsErrUniqueViolation(err) {
			render.Render(w, r, respond.ErrConflict("email already in use"))
			return
		}
		slog.Default().ErrorContext(r.Context(), "can't add user",
			slog.String("err", err.Error()))
		render.Render(w, r, respond.ErrInternal(err))
		return
	}

	token, err := jwt.NewUserToken(s.jwtAuth, user.ID, s.jwtTTL)
	if err != nil {
		slog.Default().ErrorContext(r.Context(), "can't mint token",
			slog.String("err", err.Error()))
		render.Render(w, r, respond.ErrInternal(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, &authResponse{User: user, Token: token})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := s.limiter.CheckLogin(middleware.GetClientIP(r)); err != nil {
		render.Render(w, r, respond.ErrTooManyRequests(err.Error()))
		return
	}

	req := &loginRequest{}
	if err := render.Bind(r, req); err != nil {
		render.Render(w, r, respond.ErrInvalidRequest(err))
		return
	}

	user, err := s.rep.Users().GetUserByEmail(r.Context(), strings.ToLower(req.Email))
	if err != nil {
		// Unknown email responds exactly like a wrong password.
		render.Render(w, r, respond.ErrUnauthorized(invalidCredentials))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		render.Render(w, r, respond.ErrUnauthorized(invalidCredentials))
		return
	}

	token, err := jwt.NewUserToken(s.jwtAuth, user.ID, s.jwtTTL)
	if err != nil {
		slog.Default().ErrorContext(r.Context(), "can't mint token",
			slog.String("err", err.Error()))
		render.Render(w, r, respond.ErrInternal(err))
		return
	}

	render.JSON(w, r, &authResponse{User: user, Token: token})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		render.Render(w, r, respond.ErrUnauthorized("not authenticated"))
		return
	}

	user, err := s.rep.Users().GetUserById(r.Context(), uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			render.Render(w, r, respond.ErrNotFound("user not found"))
			return
		}
		slog.Default().ErrorContext(r.Context(), "can't get user",
			slog.String("err", err.Error()))
		render.Render(w, r, respond.ErrInternal(err))
		return
	}

	render.JSON(w, r, user)
}

// WithAuth middleware verifies the bearer token and stores the user id in
// the request context. Requests without a valid token are rejected before
// any query reaches the database.
func (s *Server) WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			render.Render(w, r, respond.ErrUnauthorized("missing bearer token"))
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		uid, err := jwt.VerifyUserToken(s.jwtAuth, token)
		if err != nil {
			render.Render(w, r, respond.ErrUnauthorized("invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Limiter exposes the shared per-IP limiter for other handler groups.
func (s *Server) Limiter() *ratelimit.AuthLimiter {
	return s.limiter
}

// UserIDFromContext returns the authenticated user id set by WithAuth.
func UserIDFromContext(ctx context.Context) (int, bool) {
	uid, ok := ctx.Value(userIDKey).(int)
	return uid, ok
}

// WithUserID returns a context carrying the user id the same way WithAuth
// stores it. Handler tests use it to skip token minting.
func WithUserID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}
