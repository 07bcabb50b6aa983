package network

import "errors"

var (
	// ErrConnectionFailed indicates the client could not reach the node.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrTxNotFound indicates the requested transaction or output does not exist or is spent.
	ErrTxNotFound = errors.New("network: transaction not found")

	// ErrBroadcastRejected indicates the node rejected the broadcast transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrInvalidResponse indicates the node returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrNotConfigured indicates a missing endpoint or handler.
	ErrNotConfigured = errors.New("network: not configured")
)
