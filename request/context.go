// Package request carries the acting user and raw query parameters through a context.Context.
package request

import (
	"context"
	"net/url"
	"strings"
)

// User identifies who performs a mutation.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userContextKey struct{}

type queryContextKey struct{}

// WithUser attaches the acting user to the context.
func WithUser(ctx context.Context, user User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	user.ID = strings.TrimSpace(user.ID)
	user.Name = strings.TrimSpace(user.Name)
	if user.ID == "" && user.Name == "" {
		return ctx
	}
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the acting user, if any.
func UserFromContext(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	user, ok := ctx.Value(userContextKey{}).(User)
	return user, ok
}

// WithQuery attaches raw query parameters to the context. Values already
// present are merged, later calls win per key.
func WithQuery(ctx context.Context, query url.Values) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(query) == 0 {
		return ctx
	}

	merged := QueryFromContext(ctx)
	for key, values := range query {
		merged[key] = append([]string(nil), values...)
	}
	return context.WithValue(ctx, queryContextKey{}, merged)
}

// QueryFromContext returns a copy of the raw query parameters. It never returns nil.
func QueryFromContext(ctx context.Context) url.Values {
	out := url.Values{}
	if ctx == nil {
		return out
	}
	if query, ok := ctx.Value(queryContextKey{}).(url.Values); ok {
		for key, values := range query {
			out[key] = append([]string(nil), values...)
		}
	}
	return out
}
