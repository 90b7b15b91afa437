// Package notifications delivers job outcomes via ntfy.
//
// NewService returns an ntfy-backed Service when notifications.ntfy_topic is
// configured and a no-op otherwise, so callers never branch on
// configuration. Dispatch maps bus events onto the Service and honours the
// per-outcome toggles in the [notifications] config section.
//
// Delivery failures are returned to the caller, which logs them; a failed
// notification never affects the job it describes.
package notifications
