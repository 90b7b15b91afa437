// Package events fans typed queue events out to live subscribers.
//
// A Bus keeps the set of connected subscribers and delivers every published
// event to each of them through a bounded per-subscriber channel. Delivery is
// best effort: a subscriber whose buffer is full is dropped instead of
// stalling the publisher, and each subscriber observes events in publish
// order. The package also owns the Server-Sent Events wire codec shared by the
// daemon and the CLI client.
package events
