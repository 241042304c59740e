package jwt

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-chi/jwtauth/v5"
)

// NewUserToken creates a JWT whose subject is the owning user's id.
func NewUserToken(jwtAuth *jwtauth.JWTAuth, userID int, ttl time.Duration) (string, error) {
	claims := map[string]interface{}{
		"sub": strconv.Itoa(userID),
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	_, ts, err := jwtAuth.Encode(claims)
	if err != nil {
		return ts, err
	}
	return ts, nil
}

// VerifyUserToken verifies a token and returns the user id from its subject.
func VerifyUserToken(jwtAuth *jwtauth.JWTAuth, token string) (int, error) {
	t, err := jwtauth.VerifyToken(jwtAuth, token)
	if err != nil {
		return 0, err
	}
	uid, err := strconv.Atoi(t.Subject())
	if err != nil {
		return 0, fmt.Errorf("token subject is not a user id: %w", err)
	}
	return uid, nil
}
