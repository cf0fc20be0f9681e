package api

import (
	"errors"
	"fmt"
	"strings"

	"cagnotte/domain"
	"cagnotte/domain/entities"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const callerContextKey = "caller"

// IdentityVerifier checks bearer tokens signed by the identity provider
type IdentityVerifier struct {
	secret []byte
	issuer string
}

// NewIdentityVerifier creates a verifier for HS256 tokens. An empty issuer
// disables the "iss" check.
func NewIdentityVerifier(secret, issuer string) *IdentityVerifier {
	return &IdentityVerifier{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Verify parses a bearer token and returns the caller named by its subject
func (v *IdentityVerifier) Verify(tokenString string) (entities.Caller, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return entities.Anonymous(), fmt.Errorf("invalid token: %w", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return entities.Anonymous(), errors.New("token subject is not a user id")
	}
	return entities.NewCaller(userID), nil
}

// Identify resolves the caller of every request. Requests without an
// Authorization header run as anonymous; a malformed or invalid token is
// rejected.
func Identify(verifier *IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(callerContextKey, entities.Anonymous())
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			respondError(c, domain.ErrAuth.WithDetail("malformed authorization header"))
			return
		}

		caller, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			respondError(c, domain.ErrAuth.WithError(err))
			return
		}

		c.Set(callerContextKey, caller)
		c.Next()
	}
}

// callerFrom returns the caller resolved by Identify
func callerFrom(c *gin.Context) entities.Caller {
	if value, ok := c.Get(callerContextKey); ok {
		if caller, ok := value.(entities.Caller); ok {
			return caller
		}
	}
	return entities.Anonymous()
}

// accessTokenFrom reads the pot access token from the query or header
func accessTokenFrom(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	return c.GetHeader("X-Access-Token")
}
