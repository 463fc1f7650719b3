// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// ActorContext contains the authenticated actor performing the request.
// Identity is consumed for createdBy stamping and parish scoping; permission
// checks are enforced upstream and are not re-evaluated here.
type ActorContext struct {
	UserID   string
	ParishID string // home parish of the actor
	Email    string
}

type actorContextKey struct{}

// WithActor adds ActorContext to context.
func WithActor(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns ActorContext from context.
func GetActor(ctx context.Context) *ActorContext {
	if v, ok := ctx.Value(actorContextKey{}).(*ActorContext); ok {
		return v
	}
	return nil
}

// GetActorID returns user ID from context or empty string.
func GetActorID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.UserID
	}
	return ""
}

// GetParishID returns the actor's home parish or empty string.
func GetParishID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.ParishID
	}
	return ""
}
