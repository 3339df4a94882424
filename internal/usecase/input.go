package usecase

import (
	"encoding/json"
	"time"
)

// Input is what a handler receives for one dispatched event.
type Input struct {
	ConversationID int64
	// Text is the raw message text. It is empty for callbacks.
	Text string
	// CallbackToken is set when the event came from a button.
	CallbackToken string
	// Payload is the stored partial payload when dispatched as a step.
	Payload json.RawMessage
}

// Clock returns the current time. Use cases default to time.Now.
type Clock func() time.Time

func clockOrNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}
