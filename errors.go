package serial

import "errors"

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrInvalidBaudRate  = errors.New("invalid baud rate")
	ErrInvalidConfig    = errors.New("invalid serial configuration")
	ErrPortClosed       = errors.New("serial port is closed")
	ErrDrainTimeout     = errors.New("timed out draining serial output")

	// Connection lifecycle errors
	ErrPortUnavailable = errors.New("serial port unavailable")
	ErrIOFailure       = errors.New("serial I/O failure")
	ErrNotOpen         = errors.New("serial connection not open")
	ErrAlreadyOpen     = errors.New("serial connection already open")
	ErrManagerClosed   = errors.New("connection manager shut down")
	ErrUnknownDriver   = errors.New("unknown serial driver")
	ErrInvalidObserver = errors.New("invalid observer")
)
