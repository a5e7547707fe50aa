package log

import (
	"fmt"
	"io"

	kitlog "github.com/go-kit/kit/log"
)

const (
	// LogFormatPlain and LogFormatText are uncolored console output.
	LogFormatPlain string = "plain"
	LogFormatText  string = "text"

	// LogFormatJSON writes one JSON object per line.
	LogFormatJSON string = "json"

	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Logger is the key/value logger handed to the host chain, the handler and
// the light clients.
type Logger interface {
	Debug(msg string, keyVals ...interface{})
	Info(msg string, keyVals ...interface{})
	Error(msg string, keyVals ...interface{})

	With(keyVals ...interface{}) Logger
}

// Hexadecimal logs a hash or commitment as upper-case hex.
type Hexadecimal []byte

func (s Hexadecimal) String() string {
	return fmt.Sprintf("%X", []byte(s))
}

// NewSyncWriter serializes writes to w so that concurrent log lines do not
// interleave.
func NewSyncWriter(w io.Writer) io.Writer {
	return kitlog.NewSyncWriter(w)
}
