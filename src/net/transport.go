package net

import "errors"

// ErrTransportShutdown is returned when operations on a transport are invoked
// after it's been terminated.
var ErrTransportShutdown = errors.New("transport shutdown")

// Transport broadcasts messages to the other oracles and buffers the messages
// they broadcast.
type Transport interface {
	// Broadcast sends data to every other oracle.
	Broadcast(data []byte) error

	// Received returns the messages received since the previous call.
	Received() [][]byte

	// LocalAddr is used to return our local address
	LocalAddr() string

	// Close permanently closes a transport, stopping any associated
	// goroutines and freeing other resources.
	Close() error
}
