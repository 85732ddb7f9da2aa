package testlog

import (
	"os"
	"testing"

	"github.com/goodieshq/cardflo/internal/logging"
	"github.com/rs/zerolog/log"
)

// Start applies the test logging profile and marks the beginning of t in the
// log stream. Server goroutines may outlive a test, so output goes to stderr
// rather than through t.
func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests(os.Stderr)
	log.Info().Str("test", t.Name()).Msg("start")
}
