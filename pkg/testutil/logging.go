package testutil

import (
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// Test binaries are quiet unless run with -v. RUNTIME_TEST_LOG_LEVEL raises
// or lowers the verbosity of what does get printed.
func init() {
	level := logrus.DebugLevel
	if parsed, err := logrus.ParseLevel(os.Getenv("RUNTIME_TEST_LOG_LEVEL")); err == nil {
		level = parsed
	}
	logrus.SetLevel(level)

	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "-test.v") && arg != "-test.v=false" {
			return
		}
	}
	logrus.SetOutput(io.Discard)
}

var captureMu sync.Mutex

// CaptureLogs records every entry written to the standard logger at debug
// level or above until the test ends. Tests using it must not run in parallel
// with each other.
func CaptureLogs(t *testing.T) *test.Hook {
	captureMu.Lock()

	logger := logrus.StandardLogger()
	level := logger.GetLevel()
	if level < logrus.DebugLevel {
		logger.SetLevel(logrus.DebugLevel)
	}

	hook := test.NewLocal(logger)
	t.Cleanup(func() {
		logger.ReplaceHooks(make(logrus.LevelHooks))
		logger.SetLevel(level)
		captureMu.Unlock()
	})
	return hook
}
