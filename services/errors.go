package services

import "errors"

// Sentinel errors for the recoverable failure kinds of the chat core.
// Services wrap them with %w and handlers map them to status codes with
// errors.Is. Anything else coming out of a service is a store failure and
// surfaces as a generic 500.
var (
	// validation
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message is too long")

	// authorization
	ErrSelfFriend = errors.New("cannot perform friend action on yourself")
	ErrNotFriends = errors.New("users are not friends")

	// resolution
	ErrUserNotFound = errors.New("user not found")
)
