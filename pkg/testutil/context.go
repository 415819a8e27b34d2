package testutil

import (
	"net/http"

	id "bloodlink/pkg/domain"
	"bloodlink/pkg/requestcontext"
)

// WithActor adds the acting user to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the userID is not a valid UUID or the role is unknown, the request is
// returned unchanged.
func WithActor(req *http.Request, userID string, role string) *http.Request {
	parsedUserID, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	parsedRole, err := id.ParseRole(role)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithActor(req.Context(), parsedUserID, parsedRole))
}

