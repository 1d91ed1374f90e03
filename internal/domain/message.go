package domain

import "time"

// MessageKind is the WhatsApp payload type of an inbound message.
type MessageKind string

const (
	KindText     MessageKind = "text"
	KindImage    MessageKind = "image"
	KindLocation MessageKind = "location"
	KindDocument MessageKind = "document"
)

// Valid reports whether k is one of the supported message kinds.
func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindLocation, KindDocument:
		return true
	}
	return false
}

// InboundMessage is one customer message delivered by the webhook.
type InboundMessage struct {
	From       string
	Text       string
	Timestamp  time.Time
	Kind       MessageKind
	BusinessID string
}
