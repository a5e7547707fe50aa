package host

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// ConnectionPrefix prefixes every connection identifier.
	ConnectionPrefix = "connection"
	// ChannelPrefix prefixes every channel identifier.
	ChannelPrefix = "channel"

	// DefaultMaxCharacterLength is the default maximum character length used
	// in validation of identifiers.
	DefaultMaxCharacterLength = 64
	// DefaultMaxPortCharacterLength is the default maximum character length used
	// in validation of port identifiers.
	DefaultMaxPortCharacterLength = 128
)

// IsValidID defines regular expression to check if the string consist of
// characters in one of the following categories only:
// - Alphanumeric
// - `.`, `_`, `+`, `-`, `#`
// - `[`, `]`, `<`, `>`
var IsValidID = regexp.MustCompile(`^[a-zA-Z0-9\.\_\+\-\#\[\]\<\>]+$`).MatchString

// ClientID identifies a light client on the host, formatted {client_type}-{n}.
type ClientID string

// ConnectionID identifies a connection end, formatted connection-{n}.
type ConnectionID string

// ChannelID identifies a channel end, formatted channel-{n}.
type ChannelID string

// PortID identifies the module owning a channel.
type PortID string

// Sequence numbers packets on a channel. Zero is never a valid packet sequence.
type Sequence uint64

func (id ClientID) String() string     { return string(id) }
func (id ConnectionID) String() string { return string(id) }
func (id ChannelID) String() string    { return string(id) }
func (id PortID) String() string       { return string(id) }
func (s Sequence) String() string      { return strconv.FormatUint(uint64(s), 10) }

// Validate checks length 9..64 and the allowed character set.
func (id ClientID) Validate() error {
	return defaultIdentifierValidator(string(id), 9, DefaultMaxCharacterLength)
}

// Validate checks length 10..64, the allowed character set and the
// connection-{n} format.
func (id ConnectionID) Validate() error {
	if err := defaultIdentifierValidator(string(id), 10, DefaultMaxCharacterLength); err != nil {
		return err
	}
	_, err := ParseConnectionSequence(id)
	return err
}

// Validate checks length 8..64, the allowed character set and the
// channel-{n} format.
func (id ChannelID) Validate() error {
	if err := defaultIdentifierValidator(string(id), 8, DefaultMaxCharacterLength); err != nil {
		return err
	}
	_, err := ParseChannelSequence(id)
	return err
}

// Validate checks length 2..128 and the allowed character set.
func (id PortID) Validate() error {
	return defaultIdentifierValidator(string(id), 2, DefaultMaxPortCharacterLength)
}

// Validate rejects the zero sequence.
func (s Sequence) Validate() error {
	if s == 0 {
		return ErrInvalidSequence
	}
	return nil
}

// Increment returns the next sequence.
func (s Sequence) Increment() Sequence {
	return s + 1
}

// FormatClientID returns {clientType}-{sequence}.
func FormatClientID(clientType string, sequence uint64) ClientID {
	return ClientID(fmt.Sprintf("%s-%d", clientType, sequence))
}

// FormatConnectionID returns connection-{sequence}.
func FormatConnectionID(sequence uint64) ConnectionID {
	return ConnectionID(fmt.Sprintf("%s-%d", ConnectionPrefix, sequence))
}

// FormatChannelID returns channel-{sequence}.
func FormatChannelID(sequence uint64) ChannelID {
	return ChannelID(fmt.Sprintf("%s-%d", ChannelPrefix, sequence))
}

// ParseConnectionSequence returns n from connection-{n}.
func ParseConnectionSequence(id ConnectionID) (uint64, error) {
	return parseIdentifierSequence(string(id), ConnectionPrefix)
}

// ParseChannelSequence returns n from channel-{n}.
func ParseChannelSequence(id ChannelID) (uint64, error) {
	return parseIdentifierSequence(string(id), ChannelPrefix)
}

// ParseClientType returns the client type of a {client_type}-{n} identifier.
func ParseClientType(id ClientID) (string, error) {
	i := strings.LastIndex(string(id), "-")
	if i <= 0 {
		return "", &IdentifierError{ID: string(id), Reason: "missing client type"}
	}
	if _, err := parseSequenceSuffix(string(id), string(id)[i+1:]); err != nil {
		return "", err
	}
	return string(id)[:i], nil
}

func parseIdentifierSequence(id, prefix string) (uint64, error) {
	if !strings.HasPrefix(id, prefix+"-") {
		return 0, &IdentifierError{ID: id, Reason: fmt.Sprintf("expected prefix %q", prefix+"-")}
	}
	return parseSequenceSuffix(id, strings.TrimPrefix(id, prefix+"-"))
}

func parseSequenceSuffix(id, suffix string) (uint64, error) {
	if suffix == "" {
		return 0, &IdentifierError{ID: id, Reason: "missing sequence"}
	}
	if len(suffix) > 1 && suffix[0] == '0' {
		return 0, &IdentifierError{ID: id, Reason: "sequence has leading zeros"}
	}
	seq, err := strconv.ParseUint(suffix, 10, 64)
	if err != nil {
		return 0, &IdentifierError{ID: id, Reason: "invalid sequence", Err: err}
	}
	return seq, nil
}

func defaultIdentifierValidator(id string, min, max int) error {
	if strings.TrimSpace(id) == "" {
		return &IdentifierError{ID: id, Reason: "identifier cannot be blank"}
	}
	if strings.Contains(id, "/") {
		return &IdentifierError{ID: id, Reason: "identifier cannot contain separator '/'"}
	}
	if len(id) < min || len(id) > max {
		return &IdentifierError{ID: id, Reason: fmt.Sprintf("identifier has invalid length %d, must be between %d-%d characters", len(id), min, max)}
	}
	if !IsValidID(id) {
		return &IdentifierError{ID: id, Reason: "identifier must contain only alphanumeric or the following characters: '.', '_', '+', '-', '#', '[', ']', '<', '>'"}
	}
	return nil
}
