package focuser

import "errors"

// Sentinel errors for the focuser package.
var (
	// ErrClosed is returned by operations on a client after Close.
	ErrClosed = errors.New("focuser: client closed")

	// ErrRadioUnavailable is reported when the platform radio cannot be
	// powered on. The client stays Disconnected and waits for another
	// connect request rather than retrying on its own.
	ErrRadioUnavailable = errors.New("focuser: radio unavailable")
)
