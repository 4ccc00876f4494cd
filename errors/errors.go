package errors

import "fmt"

var (
	// ErrUnreachable covers DNS failures, refused connections and dead sockets.
	ErrUnreachable = fmt.Errorf("relay unreachable")
	// ErrAuthRejected means the relay answered the join request with a non-ok type.
	ErrAuthRejected = fmt.Errorf("join rejected by relay")
	// ErrProtocol means the relay answered with something that is not a valid response.
	ErrProtocol = fmt.Errorf("malformed relay response")
	// ErrRejected means the relay parsed our send request but did not acknowledge it.
	ErrRejected = fmt.Errorf("message not acknowledged")

	ErrProfileNotFound = fmt.Errorf("profile not found")
	ErrProfileCorrupt  = fmt.Errorf("profile corrupt")

	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
)
