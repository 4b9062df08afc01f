package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerNotRunning     = errors.New("server is not running")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrMaxClientsReached    = errors.New("maximum clients reached")
	ErrMaxRoomsReached      = errors.New("maximum rooms reached")
	ErrInvalidRoom          = errors.New("invalid room name")
	ErrInvalidConfig        = errors.New("invalid server configuration")
	ErrListenerFailed       = errors.New("failed to create listener")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrSendQueueFull        = errors.New("client send queue is full")
	ErrClientClosed         = errors.New("client is closed")
)
