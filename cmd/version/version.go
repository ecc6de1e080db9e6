package version

import (
	"context"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/p4workspace/pkg/config"
	"github.com/sidkik/p4workspace/pkg/errors"
	"github.com/sidkik/p4workspace/pkg/p4"
	"github.com/sidkik/p4workspace/pkg/version"
)

// Mocked for unit testing.
var (
	stdout              io.Writer = os.Stdout
	getWorkingDirectory           = os.Getwd
	newClient                     = p4.New
	parseUserConfig               = config.ParseUser
)

// New creates a new `version` command.
func New() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the local version and the version of the server.",
		Long: "Print the local version of p4workspace, and the version of the\n" +
			"server that the current directory's client connects to.",
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			run(context.Background(), configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "",
		fmt.Sprintf("Path to the user config (default %s)", config.UserConfigPath))
	return cmd
}

func run(ctx context.Context, configPath string) {
	fmt.Fprintf(stdout, "local version:  %s\n", version.Version)

	serverVersion, err := getServerVersion(ctx, configPath)
	if err != nil {
		log.WithError(err).Debug("Failed to get server version")
		serverVersion = "unavailable"
	}
	fmt.Fprintf(stdout, "server version: %s\n", serverVersion)
}

func getServerVersion(ctx context.Context, configPath string) (string, error) {
	userConfig, err := parseUserConfig(configPath)
	if err != nil {
		log.WithError(err).Debug(
			"Failed to read user config. Falling back to the default p4 binary.")
		userConfig = config.DefaultUser()
	}

	workDir, err := getWorkingDirectory()
	if err != nil {
		return "", errors.WithContext(err, "get working directory")
	}

	client := newClient(p4.Options{
		Path:    userConfig.P4Path,
		Dir:     workDir,
		Charset: userConfig.Charset,
	})
	defer client.Close()

	info, err := client.Connect(ctx)
	if err != nil {
		return "", errors.WithContext(err, "connect")
	}
	return info.ServerVersion, nil
}
