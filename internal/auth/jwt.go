package auth

import (
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// --- Context Keys ---

// contextKey is a custom type used for context keys to avoid collisions.
type contextKey string

// UsernameKey is the context key carrying the authenticated username.
const UsernameKey contextKey = "username"

// --- JWT Claims ---

// CustomClaims includes standard JWT claims plus the username. The username
// is the sole identity in the system; every persisted artifact is addressed
// by it.
type CustomClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewAccessToken generates a new JWT access token for the given user.
func NewAccessToken(username, jwtSecret string, expiration time.Duration) (string, error) {
	claims := CustomClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "laojia-backend",
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		log.Printf("Error signing JWT token for user %s: %v", username, err)
		return "", err
	}

	return signedToken, nil
}
