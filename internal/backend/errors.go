package backend

import "errors"

// Sentinel errors shared by directory implementations. Messages are
// user-displayable: the session store forwards them verbatim to the UI.
var (
	ErrUserNotFound       = errors.New("User not found")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrPasswordTooShort   = errors.New("Password must be at least 3 characters")
	ErrEmailTaken         = errors.New("Email already registered")
	ErrInvalidToken       = errors.New("Invalid or expired token")
	ErrNotAuthenticated   = errors.New("Not authenticated")
	ErrEmptyAvatar        = errors.New("Avatar file is empty")
)

// OpError carries a user-displayable failure message from a remote
// directory. The REST client wraps envelope messages in it so the session
// store can surface them unchanged.
type OpError struct {
	Message string
}

func (e *OpError) Error() string { return e.Message }

// Displayable extracts a message safe to show the user, or false when the
// error is an internal/transport failure that must not leak.
func Displayable(err error) (string, bool) {
	for _, sentinel := range []error{
		ErrUserNotFound,
		ErrInvalidCredentials,
		ErrPasswordTooShort,
		ErrEmailTaken,
		ErrInvalidToken,
		ErrNotAuthenticated,
		ErrEmptyAvatar,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error(), true
		}
	}
	var op *OpError
	if errors.As(err, &op) && op.Message != "" {
		return op.Message, true
	}
	return "", false
}
