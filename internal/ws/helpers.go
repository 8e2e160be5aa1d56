package ws

import "github.com/google/uuid"

// newConnID names one websocket connection for registry and log correlation.
func newConnID() string {
	return uuid.NewString()
}
