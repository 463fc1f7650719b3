package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"vestry/internal/core/apperror"
	appctx "vestry/internal/core/context"
)

// ActorClaims are the token claims this service consumes. Authentication
// and permission checks happen upstream; here the token only identifies who
// acts and which parish is their home.
type ActorClaims struct {
	ParishID string `json:"parish_id"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenParser validates HMAC-signed bearer tokens.
type TokenParser struct {
	secret []byte
}

// NewTokenParser creates a parser with the shared signing secret.
func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{secret: []byte(secret)}
}

// Parse validates the token and extracts the actor.
func (p *TokenParser) Parse(tokenString string) (*appctx.ActorContext, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &appctx.ActorContext{
		UserID:   claims.Subject,
		ParishID: claims.ParishID,
		Email:    claims.Email,
	}, nil
}

// Actor middleware resolves the bearer token into an ActorContext so
// services can stamp createdBy and default the parish scope.
func Actor(parser *TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		actor, err := parser.Parse(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := appctx.WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", actor.UserID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
