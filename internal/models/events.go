package models

import "encoding/json"

// Inbound event types accepted over a websocket connection.
const (
	EventMessage     = "message"
	EventTyping      = "typing"
	EventReadReceipt = "read_receipt"
)

// Outbound push types.
const (
	PushNewMessage   = "new_message"
	PushReaction     = "reaction"
	PushReadReceipt  = "read_receipt"
	PushTyping       = "typing"
	PushNotification = "notification"
)

// InboundEvent is the frame clients send over an established connection.
type InboundEvent struct {
	Type           string          `json:"type"`
	ConversationID int             `json:"conversation_id"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// MessagePayload is the payload of an inbound "message" event.
type MessagePayload struct {
	Content  string `json:"content"`
	Mentions []int  `json:"mentions,omitempty"`
}

// ReadReceiptPayload is the payload of an inbound "read_receipt" event.
type ReadReceiptPayload struct {
	MessageID int `json:"message_id"`
}

// PushEvent is the frame fanned out to recipient connections.
type PushEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// AckFrame confirms an accepted inbound event back to its sender.
type AckFrame struct {
	Type      string `json:"type"`
	Event     string `json:"event"`
	MessageID int    `json:"message_id,omitempty"`
}

// ErrorFrame reports a distinguishable failure for one inbound event or for
// the connection attempt itself.
type ErrorFrame struct {
	Type         string `json:"type"`
	Code         string `json:"code"`
	RetryAfterMs int64  `json:"retry_after_ms,omitempty"`
}

// Error codes surfaced in ErrorFrame and REST responses.
const (
	CodeMissingToken       = "missing_token"
	CodeInvalidToken       = "invalid_token"
	CodeExpiredToken       = "expired_token"
	CodeCapacityExceeded   = "capacity_exceeded"
	CodeThrottleExceeded   = "throttle_exceeded"
	CodePersistenceFailure = "persistence_failure"
	CodeNotParticipant     = "not_participant"
	CodeBadEvent           = "bad_event"
)
