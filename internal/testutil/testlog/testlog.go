package testlog

import (
	"testing"

	"github.com/danmuck/scopectl/internal/logging"
)

// Start configures the shared test logging profile and tags the stream with
// the running test's name.
func Start(t *testing.T) {
	t.Helper()
	logger := logging.ConfigureTests()
	logger.Debug().Str("test", t.Name()).Msg("start")
}
