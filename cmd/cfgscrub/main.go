// Command cfgscrub clears the Google OAuth client credentials from the
// development settings file so it can be committed.
//
// The command takes no arguments and reads no environment. It rewrites
// AmesaBackend/appsettings.Development.json relative to the working directory,
// setting Authentication.Google.ClientId and ClientSecret to "" when the
// Google section exists. On failure it prints a single "Error: ..." line to
// stderr and exits with status 1.
package main

import (
	"fmt"
	"io"
	"os"

	cerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/brizzbuzz/cfgscrub/internal/config"
	"github.com/brizzbuzz/cfgscrub/internal/errors"
	"github.com/brizzbuzz/cfgscrub/internal/logging"
	"github.com/brizzbuzz/cfgscrub/internal/secrets"
)

func main() {
	os.Exit(run(os.Stderr))
}

func run(stderr io.Writer) int {
	if err := scrub(stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func scrub(stderr io.Writer) error {
	cfg, err := config.Default()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return errors.ConfigError("Creating logger", "Invalid log settings", err)
	}
	defer func() { _ = logger.Sync() }()

	scrubber := secrets.NewScrubber(cfg, logger)

	result, err := scrubber.ScrubFile(cfg.TargetFile)
	if err != nil {
		logFailure(logger, err)
		return err
	}

	logger.Debug("Done",
		zap.Int("cleared", len(result.Cleared)),
		zap.Bool("pass_through", result.PassThrough()))

	return nil
}

// logFailure records the multi-line detail of a scrub error at debug level.
func logFailure(logger *zap.Logger, err error) {
	var se *errors.ScrubError
	if !cerr.As(err, &se) {
		logger.Debug("Scrub failed", zap.Error(err))
		return
	}
	logger.Debug("Scrub failed",
		zap.String("kind", se.Kind.String()),
		zap.String("detail", se.Detail()),
		zap.Strings("hints", errors.Hints(err)))
}
