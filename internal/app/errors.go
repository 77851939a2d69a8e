package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoActiveProfile = errors.New("no active profile")
	ErrBusy            = errors.New("an ingestion batch is queued or running")
	ErrNotFound        = errors.New("not found")
	ErrQueueFull       = errors.New("ingestion queue is full")
	ErrInvalidMode     = errors.New("invalid open mode")
	ErrNotStarted      = errors.New("service not started")
	ErrProfileActive   = errors.New("profile is active")
)
