// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets values, services read them. Keeping this package free of
// net/http lets domain services import only what they need. Every
// state-changing operation reads the acting principal from here for audit
// attribution; no process-wide session state exists.
//
// Usage in services (read values):
//
//	actor := requestcontext.Actor(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithActor(ctx, actor)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"civreg/pkg/domain"
)

type (
	actorKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Principal identifies who is performing a state-changing call.
type Principal struct {
	// ID is the admin id or citizen national id, depending on Role.
	ID   string
	Name string
	Role domain.ActorRole
}

// System is the principal attributed to background or bootstrap writes.
var System = Principal{ID: "system", Name: "system", Role: domain.RoleSystem}

// Actor retrieves the acting principal from the context. Returns the System
// principal when none is set so audit rows are never attributed to nobody.
func Actor(ctx context.Context) Principal {
	if p, ok := ctx.Value(actorKey{}).(Principal); ok {
		return p
	}
	return System
}

// WithActor injects the acting principal into the context.
func WithActor(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, actorKey{}, p)
}

// RequestID retrieves the request correlation id, or empty when unset.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request correlation id into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Now returns the request-scoped time if one was injected, else time.Now().
// Tests pin the clock through WithTime.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed request time into the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
