package link

import "errors"

var (
	// ErrDisconnected indicates no host is connected.
	ErrDisconnected = errors.New("disconnected")
	// ErrInputBufferOverflow indicates a line exceeded the line buffer.
	ErrInputBufferOverflow = errors.New("input buffer overflow")
	// ErrIO indicates the transport failed.
	ErrIO = errors.New("IO error")
)
