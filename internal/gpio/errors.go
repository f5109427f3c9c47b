package gpio

import "errors"

// Sentinel errors for GPIO operations.
var (
	// ErrUnknownDriver is returned for an unrecognised driver name.
	ErrUnknownDriver = errors.New("gpio: unknown driver")

	// ErrInitFailed is returned when the periph host cannot be initialised.
	ErrInitFailed = errors.New("gpio: host initialisation failed")

	// ErrPinNotFound is returned when a configured pin has no GPIO mapping.
	ErrPinNotFound = errors.New("gpio: pin not found")

	// ErrClosed is returned for operations on a closed driver.
	ErrClosed = errors.New("gpio: driver closed")
)
