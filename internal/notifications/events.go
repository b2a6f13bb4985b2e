package notifications

import (
	"encoding/json"
	"fmt"
)

// EventKind names a realtime frame type.
type EventKind string

const (
	// Client to server.
	EventLogin  EventKind = "login"
	EventLogout EventKind = "logout"

	// Server to a single user.
	EventLike   EventKind = "like"
	EventAnswer EventKind = "answer"
	EventFollow EventKind = "follow"

	// Broadcast to every connection.
	EventQuestionCreated EventKind = "questionCreated"
	EventAnswerCreated   EventKind = "answerCreated"

	// Sent to a client whose buffer overflowed.
	EventMessagesDropped EventKind = "messagesDropped"

	// Sent back to a client whose frame was rejected.
	EventError EventKind = "error"
)

// IsBroadcast reports whether frames of this kind fan out to every connection.
func (k EventKind) IsBroadcast() bool {
	return k == EventQuestionCreated || k == EventAnswerCreated
}

// Envelope is the JSON frame exchanged over the websocket.
type Envelope struct {
	Type    EventKind       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LoginPayload carries the access token a client identifies with.
type LoginPayload struct {
	Token string `json:"token"`
}

// LikePayload tells an owner that someone liked their question or answer.
type LikePayload struct {
	Name       string `json:"name"`
	UserID     uint   `json:"userId"`
	QuestionID uint   `json:"questionId,omitempty"`
	AnswerID   uint   `json:"answerId,omitempty"`
}

// AnswerPayload tells a question owner that a new answer arrived.
type AnswerPayload struct {
	Name       string `json:"name"`
	UserID     uint   `json:"userId"`
	QuestionID uint   `json:"questionId"`
	AnswerID   uint   `json:"answerId"`
}

// ErrorPayload explains why a client frame was rejected.
type ErrorPayload struct {
	Event   EventKind `json:"event,omitempty"`
	Message string    `json:"message"`
}

// FollowPayload tells a user that someone followed them.
type FollowPayload struct {
	Name   string `json:"name"`
	UserID uint   `json:"userId"`
}

// Encode builds a {type, payload} frame. A json.RawMessage payload is passed
// through untouched.
func Encode(kind EventKind, payload any) ([]byte, error) {
	env := Envelope{Type: kind}
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		env.Payload = p
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// Decode parses an inbound frame.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("decode frame: %w", err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("decode frame: missing type")
	}
	return env, nil
}
