package utils

import (
	"errors" // Error values
	"fmt"    // Error formatting
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
	"github.com/google/uuid"       // Token identifiers
)

// TokenType distinguishes what a signed token may be used for
type TokenType string

const (
	AccessToken  TokenType = "access"  // Short lived, sent as Bearer header
	RefreshToken TokenType = "refresh" // Exchanged for new access tokens, can be blacklisted
	SessionToken TokenType = "session" // Cookie for the server rendered pages
)

// ErrWrongTokenType is returned when a valid token is used for the wrong purpose
var ErrWrongTokenType = errors.New("token has wrong type")

// JWTConfig holds the signing secret and token lifetimes
type JWTConfig struct {
	Secret     string        // HMAC secret
	AccessTTL  time.Duration // Access token lifetime
	RefreshTTL time.Duration // Refresh token lifetime
	SessionTTL time.Duration // Session cookie lifetime
}

// TTL returns the lifetime configured for a token type
func (c JWTConfig) TTL(typ TokenType) time.Duration {
	switch typ {
	case RefreshToken:
		return c.RefreshTTL
	case SessionToken:
		return c.SessionTTL
	default:
		return c.AccessTTL
	}
}

// JWT Claims
type Claims struct {
	UserID    uint      `json:"user_id"`    // Custom claim for user ID
	TokenType TokenType `json:"token_type"` // Custom claim for the token purpose

	// Standard JWT claims, ID carries the jti
	jwt.RegisteredClaims
}

// TokenPair is an access token with its refresh token
type TokenPair struct {
	Access  string `json:"access"`  // Access token
	Refresh string `json:"refresh"` // Refresh token
}

// GenerateJWT creates a signed token of the given type for a user ID
func GenerateJWT(userID uint, typ TokenType, cfg JWTConfig) (string, *Claims, error) {
	now := time.Now()
	// Set token claims
	claims := &Claims{
		UserID:    userID, // Custom claim for user ID
		TokenType: typ,    // Token purpose
		// Standard claims
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),                          // Unique id used by the blacklist
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL(typ))), // Expiry depends on the type
			IssuedAt:  jwt.NewNumericDate(now),                   // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	signed, err := token.SignedString([]byte(cfg.Secret))      // Sign the token with the secret
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// GenerateTokenPair creates an access and a refresh token for a user ID
func GenerateTokenPair(userID uint, cfg JWTConfig) (TokenPair, error) {
	access, _, err := GenerateJWT(userID, AccessToken, cfg)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := GenerateJWT(userID, RefreshToken, cfg)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// ParseJWT parses and validates a JWT token string of the expected type
func ParseJWT(tokenStr, secret string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid // Return error if token is invalid
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenType, claims.TokenType, want)
	}
	return claims, nil
}
