package exported

import (
	"fmt"
	"strings"
)

// The "message" event opens the events of every handled message.
const (
	EventTypeMessage   = "message"
	AttributeKeyModule = "module"
)

// Attribute is a key/value pair of an event.
type Attribute struct {
	Key   string
	Value string
}

// NewAttribute returns an attribute.
func NewAttribute(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Event is a typed, ordered set of attributes emitted by a handler.
type Event struct {
	Type       string
	Attributes []Attribute
}

// NewEvent returns an event of the given type.
func NewEvent(typ string, attrs ...Attribute) Event {
	return Event{Type: typ, Attributes: attrs}
}

// NewMessageEvent returns the "message" event naming the handling module.
func NewMessageEvent(module string) Event {
	return NewEvent(EventTypeMessage, NewAttribute(AttributeKeyModule, module))
}

// Attribute returns the value of the first attribute with key.
func (e Event) Attribute(key string) (string, bool) {
	for _, attr := range e.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

func (e Event) String() string {
	parts := make([]string, 0, len(e.Attributes))
	for _, attr := range e.Attributes {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	return fmt.Sprintf("%s{%s}", e.Type, strings.Join(parts, ", "))
}
