package shared

import "context"

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

// Actor returns the signed-in user id and role, empty when anonymous.
func Actor(ctx context.Context) (string, Role) {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return "", ""
	}
	return sess.User(), sess.Role()
}
