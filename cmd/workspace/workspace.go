package workspace

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/p4workspace/cmd/util"
	"github.com/sidkik/p4workspace/pkg/cleanup"
	"github.com/sidkik/p4workspace/pkg/config"
	"github.com/sidkik/p4workspace/pkg/errors"
	"github.com/sidkik/p4workspace/pkg/links"
	"github.com/sidkik/p4workspace/pkg/p4"
	"github.com/sidkik/p4workspace/pkg/reconcile"
	"github.com/sidkik/p4workspace/pkg/verify"
	"github.com/sidkik/p4workspace/pkg/workspace"
)

// Mocked for unit testing.
var (
	stdout              io.Writer = os.Stdout
	getWorkingDirectory           = os.Getwd
	newClient                     = p4.New
	newResolver                   = links.NewResolver
	parseUserConfig               = config.ParseUser
)

type options struct {
	quiet bool

	cleanMissing bool
	cleanEdited  bool
	cleanAdded   bool
	cleanExtra   bool
	cleanEmpty   bool
	cleanAll     bool

	verify bool
	repair bool
	reset  bool

	configPath string
}

// New creates the root command, which reconciles the current directory.
func New() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "p4workspace",
		Short: "Compare the working directory with the server, and clean it up",
		Long: "Report files in the current directory that are missing, opened for\n" +
			"edit or add, or unknown to the server. Flags select which differences\n" +
			"to fix. Files beneath symbolic links and junctions are never touched.",
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			opts.expand()
			if err := run(opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&opts.quiet, "quiet", "q", false,
		"Don't display the status report of files")
	flags.BoolVarP(&opts.cleanAll, "clean_all", "c", false,
		"Clean the local workspace to match the server workspace")
	flags.BoolVarP(&opts.cleanAdded, "clean_added", "a", false,
		"Clean: delete and revert files that are opened for add")
	flags.BoolVarP(&opts.cleanEdited, "clean_edited", "e", false,
		"Clean: revert files that are opened for edit")
	flags.BoolVarP(&opts.cleanMissing, "clean_missing", "m", false,
		"Clean: restore files that are missing locally")
	flags.BoolVarP(&opts.cleanExtra, "clean_extra", "x", false,
		"Clean: delete files that are unknown or deleted at #have")
	flags.BoolVarP(&opts.cleanEmpty, "clean_empty", "d", false,
		"Clean: delete empty directories")
	flags.BoolVarP(&opts.verify, "verify", "v", false,
		"Verify the integrity of existing files")
	flags.BoolVarP(&opts.repair, "repair", "r", false,
		"Repair files that fail verification")
	flags.BoolVarP(&opts.reset, "reset", "R", false,
		"Completely reset everything. Implies --verify --repair --clean_all")
	flags.StringVar(&opts.configPath, "config", "",
		fmt.Sprintf("Path to the user config (default %s)", config.UserConfigPath))
	return cmd
}

// expand resolves the composite flags, so that the rest of the command only
// needs to look at the individual flags.
func (opts *options) expand() {
	if opts.reset {
		opts.verify = true
		opts.repair = true
		opts.cleanAll = true
	}

	if opts.cleanAll {
		opts.cleanMissing = true
		opts.cleanEdited = true
		opts.cleanAdded = true
		opts.cleanExtra = true
		opts.cleanEmpty = true
	}
}

func (opts options) selection() cleanup.Selection {
	return cleanup.Selection{
		Missing: opts.cleanMissing,
		Edited:  opts.cleanEdited,
		Added:   opts.cleanAdded,
		Extra:   opts.cleanExtra,
		Empty:   opts.cleanEmpty,
	}
}

func run(opts options) error {
	resolver, err := newResolver()
	if err != nil {
		return errors.WithContext(err, "create link resolver")
	}

	userConfig, err := parseUserConfig(opts.configPath)
	if err != nil {
		return errors.WithContext(err, "read user config")
	}

	workDir, err := getWorkingDirectory()
	if err != nil {
		return errors.WithContext(err, "get working directory")
	}

	if opts.repair && !opts.verify {
		log.Warn("--repair has no effect without --verify")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := newClient(p4.Options{
		Path:    userConfig.P4Path,
		Dir:     workDir,
		Charset: userConfig.Charset,
	})
	defer func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Debug("Failed to disconnect")
		}
	}()

	return reconcileWorkspace(ctx, client, resolver, userConfig, workDir, opts)
}

func reconcileWorkspace(ctx context.Context, client p4.Client, resolver links.Resolver,
	userConfig config.User, workDir string, opts options) error {
	info, err := client.Connect(ctx)
	if err != nil {
		return errors.WithContext(err, "connect")
	}

	if err := p4.CheckServerVersion(info.ServerVersion); err != nil {
		return err
	}

	spec, err := client.FetchClientSpec(ctx)
	if err != nil {
		return errors.WithContext(err, "fetch client spec")
	}

	ws, err := workspace.New(spec.Name, spec.Root, spec.View, workDir)
	if err != nil {
		return errors.WithContext(err, "load client view")
	}

	ignore := append([]string{}, userConfig.Ignore...)
	configName, err := client.ConfigFileName(ctx)
	if err != nil {
		return errors.WithContext(err, "get P4CONFIG")
	}
	if configFile, ok := reconcile.FindConfigFile(ws, configName); ok {
		ignore = append(ignore, configFile)
	}

	logger := log.StandardLogger()
	state, err := reconcile.Collector{
		Client:    client,
		Workspace: ws,
		Resolver:  resolver,
		Log:       logger,
		Ignore:    ignore,
	}.Collect(ctx)
	if err != nil {
		return errors.WithContext(err, "collect state")
	}
	if ctx.Err() != nil {
		return errors.ErrInterrupted
	}

	classification := reconcile.Classify(state)
	if !opts.quiet {
		classification.Print(stdout)
	}

	err = cleanup.Executor{
		Client:    client,
		Workspace: ws,
		Log:       logger,
		Out:       stdout,
	}.Run(ctx, classification, state.Local, opts.selection())
	if err != nil {
		return errors.WithContext(err, "clean up")
	}

	if opts.verify {
		_, err := verify.Verifier{
			Client:    client,
			Workspace: ws,
			Log:       logger,
			Out:       stdout,
			Interval:  userConfig.ProgressInterval,
		}.Run(ctx, len(state.Have), opts.repair)
		if err != nil {
			return errors.WithContext(err, "verify")
		}
	}

	// The local phases only stop between directories, so an interrupt
	// during the last of them is reported here.
	if ctx.Err() != nil {
		return errors.ErrInterrupted
	}
	return nil
}
