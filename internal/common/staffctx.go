package common

import "context"

type ctxKey string

const (
	staffIDKey   ctxKey = "auth/staff-id"
	staffRoleKey ctxKey = "auth/staff-role"
)

// WithStaff stores the authenticated staff identity on the context.
func WithStaff(ctx context.Context, id, role string) context.Context {
	ctx = context.WithValue(ctx, staffIDKey, id)
	return context.WithValue(ctx, staffRoleKey, role)
}

// StaffID returns the authenticated staff identifier, if any.
func StaffID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(staffIDKey).(string)
	return id, ok && id != ""
}

// StaffRole returns the authenticated staff role, if any.
func StaffRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(staffRoleKey).(string)
	return role, ok && role != ""
}
