// Package client talks to a running mediaq daemon over its HTTP API.
//
// JSON endpoints map to one method each. Watch follows the Server-Sent
// Events stream and hands decoded frames to a callback until the context
// ends or the daemon closes the stream.
package client
