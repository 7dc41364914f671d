package cli

import (
	"errors"
	"fmt"

	"kanban-cli/internal/remote"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// userError replaces a low-level error with the message the user should see,
// keeping the cause for errors.Is.
type userError struct {
	msg   string
	cause error
}

func (e userError) Error() string { return e.msg }

func (e userError) Unwrap() error { return e.cause }

// explain maps remote failures to short messages for CLI output.
func explain(action string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, remote.ErrTokenExpired):
		return userError{msg: "Token expired; run `kanban login --token <jwt>`", cause: err}
	case errors.Is(err, remote.ErrUnauthorized):
		return userError{msg: "Not authorized; run `kanban login --token <jwt>`", cause: err}
	case errors.Is(err, remote.ErrForbidden):
		return userError{msg: fmt.Sprintf("%s: permission denied", action), cause: err}
	}
	return fmt.Errorf("%s: %w", action, err)
}
