package api

import "errors"

var (
	// ErrNoItems indicates an add request carried nothing to enqueue.
	ErrNoItems = errors.New("items array required")
	// ErrInvalidURL indicates an item had an empty URL.
	ErrInvalidURL = errors.New("url required")
	// ErrUnknownAction indicates a control verb other than pause, resume, or cancel_all.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidFormat indicates an output format other than audio or video.
	ErrInvalidFormat = errors.New("invalid format")
)

// IsValidation reports whether err was caused by caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNoItems) ||
		errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrUnknownAction) ||
		errors.Is(err, ErrInvalidFormat)
}
