package service

import "errors"

// Sentinel errors returned by the service and its sessions.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrSessionOpen  = errors.New("period already has an open session")
	ErrSessionClose = errors.New("session closed")
	ErrQueueFull    = errors.New("save queue rejected the snapshot")
)
