package shared

import (
	"context"

	"github.com/quotedesk/quotedesk/internal/quote"
)

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

type actorContextKey struct{}

// ContextWithActor stores the resolved actor in context. Handlers downstream
// of the auth middleware trust this value completely.
func ContextWithActor(ctx context.Context, actor quote.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor placed by the auth middleware.
func ActorFromContext(ctx context.Context) (quote.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(quote.Actor)
	return actor, ok
}
