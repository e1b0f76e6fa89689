package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrHubStopped      = errors.New("hub is stopped")
)
