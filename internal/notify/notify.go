package notify

// Message is one completion notice awaiting delivery. Recipient may be
// empty when the creator has no registered address; senders fall back
// to a configured default.
type Message struct {
	TaskID    string
	TaskName  string
	Recipient string
}

// Sender delivers one message. Implementations report failure so the
// dispatcher can log it, but delivery is always best effort.
type Sender interface {
	Send(msg Message) error
}
