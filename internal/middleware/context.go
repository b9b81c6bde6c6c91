// Package middleware carries the HTTP middleware chain: request
// authentication, casbin route authorization and JSON error handling.
package middleware

import "context"

// contextKey is a private type so our context values cannot collide.
type contextKey string

const userContextKey = contextKey("user")

// UserInfo is the authenticated identity attached to a request. UserID
// is zero and Subject "anonymous" for unauthenticated requests.
type UserInfo struct {
	UserID  int64
	Name    string
	Subject string
}

// Anonymous reports whether the request carries no authenticated user.
func (u *UserInfo) Anonymous() bool {
	return u.UserID == 0
}

// GetUserInfo retrieves the identity from the request context, falling
// back to anonymous.
func GetUserInfo(ctx context.Context) *UserInfo {
	if userInfo, ok := ctx.Value(userContextKey).(*UserInfo); ok {
		return userInfo
	}
	return &UserInfo{Subject: "anonymous"}
}

// SetUserInfo attaches an identity to the request context.
func SetUserInfo(ctx context.Context, userInfo *UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey, userInfo)
}
