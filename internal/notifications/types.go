package notifications

// Payload is one desktop notification. Urgent payloads announce an alarm
// and use the backend's attention-grabbing variant where it has one.
type Payload struct {
	Title   string
	Content string
	Urgent  bool
}

type Sender interface {
	Send(payload Payload)
}
