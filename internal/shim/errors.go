package shim

import "errors"

var (
	// ErrUnimplemented indicates the backend does not implement the test case.
	ErrUnimplemented = errors.New("shim: unimplemented")

	// ErrGreetingMismatch indicates we received an unexpected greeting.
	ErrGreetingMismatch = errors.New("shim: greeting mismatch")

	// ErrTagMismatch indicates a large data chunk with the wrong tag.
	ErrTagMismatch = errors.New("shim: chunk tag mismatch")

	// ErrKeyUpdateCount indicates we did not send one key update per gigabyte.
	ErrKeyUpdateCount = errors.New("shim: unexpected number of key updates")

	// ErrResumptionNotUsed indicates a full handshake where we expected resumption.
	ErrResumptionNotUsed = errors.New("shim: session resumption not used")

	// ErrUnexpectedResumption indicates that the first connection resumed a session.
	ErrUnexpectedResumption = errors.New("shim: unexpected session resumption")

	// ErrUnexpectedData indicates data received after the peer should have
	// stopped sending.
	ErrUnexpectedData = errors.New("shim: unexpected data before close")
)
