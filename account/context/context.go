// Package context carries the current user through request contexts.
package context

import (
	"context"

	"github.com/postdeck/postdeck/account"
)

type contextKey string

const userKey contextKey = "currentUser"

func WithUser(ctx context.Context, user *account.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the current user, or nil when the request is
// anonymous.
func UserFromContext(ctx context.Context) *account.User {
	user, ok := ctx.Value(userKey).(*account.User)
	if !ok {
		return nil
	}

	return user
}
