package mocks

import "errors"

var (
	// ErrSendFailed is returned by senders configured to fail.
	ErrSendFailed = errors.New("mock send failed")

	// ErrLookupFailed is a generic injected lookup failure.
	ErrLookupFailed = errors.New("mock lookup failed")
)
