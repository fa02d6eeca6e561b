package connection

import "errors"

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
	ErrNotSubscribed = errors.New("connection is not subscribed to channel")
	ErrQueueFull     = errors.New("connection send queue is full")
)
