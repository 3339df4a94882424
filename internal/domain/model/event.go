package model

// Event is one inbound chat event. Exactly one of Text and CallbackToken is
// set.
type Event struct {
	ConversationID int64
	Text           string
	CallbackToken  string
}

func (e Event) IsCallback() bool { return e.CallbackToken != "" }

// Button is a single inline button. Data is the callback token.
type Button struct {
	Text string
	Data string
	URL  string
}

// Reply is an outbound plain text message with optional inline buttons.
type Reply struct {
	ConversationID int64
	Text           string
	Buttons        [][]Button
}
