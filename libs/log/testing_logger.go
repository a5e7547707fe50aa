package log

import (
	"os"
	"sync"
	"testing"
)

var (
	testingLoggerOnce sync.Once
	testingLogger     Logger
)

// TestingLogger is shared by every test of a binary. Under go test -v it logs
// debug lines to stdout, otherwise it discards everything. It must be called
// from a test, since testing.Verbose is only known once flags are parsed.
func TestingLogger() Logger {
	testingLoggerOnce.Do(func() {
		if !testing.Verbose() {
			testingLogger = NewNopLogger()
			return
		}
		logger, err := NewLogger(os.Stdout, LogFormatText, LogLevelDebug)
		if err != nil {
			panic(err)
		}
		testingLogger = logger
	})
	return testingLogger
}
