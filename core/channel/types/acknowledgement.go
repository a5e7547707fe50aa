package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResponseResultType defines the possible outcomes of the execution of a
// message
type ResponseResultType int32

const (
	// Default zero value enumeration
	UNSPECIFIED ResponseResultType = 0
	// The message did not call the IBC application callbacks (because, for
	// example, the packet had already been relayed)
	NOOP ResponseResultType = 1
	// The message was executed successfully
	SUCCESS ResponseResultType = 2
	// The message was executed unsuccessfully
	FAILURE ResponseResultType = 3
)

var resultNames = map[ResponseResultType]string{
	UNSPECIFIED: "RESPONSE_RESULT_TYPE_UNSPECIFIED",
	NOOP:        "RESPONSE_RESULT_TYPE_NOOP",
	SUCCESS:     "RESPONSE_RESULT_TYPE_SUCCESS",
	FAILURE:     "RESPONSE_RESULT_TYPE_FAILURE",
}

func (r ResponseResultType) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RESPONSE_RESULT_TYPE_%d", int32(r))
}

// Acknowledgement is the recommended acknowledgement format to be used by
// app-specific protocols. Exactly one of Result and Error is set. It is
// written to the store in its JSON form, e.g. {"result":"AQ=="} or
// {"error":"cannot unmarshal packet data"}.
type Acknowledgement struct {
	Result []byte `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NewResultAcknowledgement returns a successful acknowledgement carrying
// result.
func NewResultAcknowledgement(result []byte) Acknowledgement {
	return Acknowledgement{Result: result}
}

// NewErrorAcknowledgement returns a failed acknowledgement. Only the error
// text is kept.
func NewErrorAcknowledgement(err error) Acknowledgement {
	return Acknowledgement{Error: err.Error()}
}

// ValidateBasic performs a basic validation of the acknowledgement
func (ack Acknowledgement) ValidateBasic() error {
	switch {
	case len(ack.Result) != 0 && ack.Error != "":
		return fmt.Errorf("%w: result and error cannot both be set", ErrInvalidAcknowledgement)
	case len(ack.Result) == 0 && strings.TrimSpace(ack.Error) == "":
		return fmt.Errorf("%w: acknowledgement result and error cannot both be empty", ErrInvalidAcknowledgement)
	}
	return nil
}

// Success reports whether the acknowledgement carries a result.
func (ack Acknowledgement) Success() bool {
	return len(ack.Result) != 0
}

// Acknowledgement returns the acknowledgement serialised using JSON.
func (ack Acknowledgement) Acknowledgement() []byte {
	bz, err := json.Marshal(ack)
	if err != nil {
		panic(err)
	}
	return bz
}

// ParseAcknowledgement decodes the JSON form written by Acknowledgement.
func ParseAcknowledgement(bz []byte) (Acknowledgement, error) {
	var ack Acknowledgement
	if err := json.Unmarshal(bz, &ack); err != nil {
		return Acknowledgement{}, fmt.Errorf("%w: %v", ErrInvalidAcknowledgement, err)
	}
	return ack, ack.ValidateBasic()
}
