// Package services contains server-side business logic. Every operation
// takes the caller's auth.Principal explicitly; the HTTP layer only decodes
// tokens.
package services

import (
	"errors"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/google/uuid"
)

// Caller-facing messages.
const (
	msgDashboardSpecifiedNotFound = "The specified dashboard has not been found."
	msgDashboardSelectedNotFound  = "The selected dashboard has not been found."
	msgDashboardExists            = "A dashboard with that name already exists."
	msgSourceExists               = "A source with that name already exists."
	msgSourceNotFound             = "The selected source has not been found."
	msgUserNotFound               = "User not found."
	msgResetExpired               = "Reset token has expired."
	msgPasswordMismatch           = "Password does not match!"
	msgRegistrationConflict       = "Registration Error: A user with that e-mail or username already exists."

	MsgResetSent       = "Forgot password e-mail sent."
	MsgPasswordChanged = "Password was changed."
)

// validID reports whether id can name a stored row. Anything else is
// treated as a miss.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// classify replaces a repository miss with the given domain error and
// passes any other error through.
func classify(err error, notFound error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return notFound
	}
	return err
}
