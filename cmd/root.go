package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"

	configCmd "github.com/sidkik/p4workspace/cmd/config"
	"github.com/sidkik/p4workspace/cmd/util"
	"github.com/sidkik/p4workspace/cmd/version"
	"github.com/sidkik/p4workspace/cmd/workspace"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "P4WORKSPACE_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := workspace.New()
	rootCmd.SilenceUsage = true

	// The call to rootCmd.Execute prints the error, so we silence errors
	// here to avoid double printing.
	rootCmd.SilenceErrors = true
	rootCmd.AddCommand(
		configCmd.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
