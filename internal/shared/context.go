package shared

import "context"

type ctxKey int

const sessionKey ctxKey = iota

// ContextWithSession attaches the request session loaded by Middleware.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the request session, or nil outside Middleware.
// (*Session).Operator is nil-safe, so callers may chain on the result.
func SessionFromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(sessionKey).(*Session); ok {
		return sess
	}
	return nil
}
