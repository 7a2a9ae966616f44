package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Token kinds carried in the typ claim.
const (
	KindSession = "session"
	KindReset   = "reset"
)

// Claims carries the registered claims plus the identity fields. Session
// tokens fill all three; reset tokens carry only Username.
type Claims struct {
	jwt.RegisteredClaims
	Kind     string `json:"typ"`
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Principal is the authenticated caller decoded from a token.
type Principal struct {
	ID       string
	Username string
	Email    string
}

// GenerateSessionToken signs a session token for the given user.
func GenerateSessionToken(p Principal, secretKey []byte, validityDuration time.Duration) (string, error) {
	return sign(Claims{Kind: KindSession, ID: p.ID, Username: p.Username, Email: p.Email}, secretKey, validityDuration)
}

// GenerateResetToken signs a password reset token embedding only the username.
func GenerateResetToken(username string, secretKey []byte, validityDuration time.Duration) (string, error) {
	return sign(Claims{Kind: KindReset, Username: username}, secretKey, validityDuration)
}

func sign(claims Claims, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates a token of either kind and returns its principal.
// Expired tokens yield common.ErrTokenExpired, anything else invalid
// yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (Principal, error) {
	claims, err := parse(tokenString, secretKey)
	if err != nil {
		return Principal{}, err
	}
	return claims.principal(), nil
}

// ParseSessionToken is ParseToken restricted to session tokens. Reset tokens
// and tokens without a user id are rejected with common.ErrInvalidToken.
func ParseSessionToken(tokenString string, secretKey []byte) (Principal, error) {
	claims, err := parse(tokenString, secretKey)
	if err != nil {
		return Principal{}, err
	}
	if claims.Kind != KindSession || claims.ID == "" {
		return Principal{}, common.ErrInvalidToken
	}
	return claims.principal(), nil
}

func parse(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Username == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

func (c *Claims) principal() Principal {
	return Principal{ID: c.ID, Username: c.Username, Email: c.Email}
}
