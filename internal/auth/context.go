package auth

import "context"

// --- Context Helper Functions ---

// GetUsernameFromContext retrieves the authenticated username from the
// request context. Returns the name and true if found, otherwise "" and
// false.
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}
