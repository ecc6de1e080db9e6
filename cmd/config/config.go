package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ghodss/yaml"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/p4workspace/cmd/util"
	"github.com/sidkik/p4workspace/pkg/config"
	"github.com/sidkik/p4workspace/pkg/errors"
	"github.com/sidkik/p4workspace/pkg/p4"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	stdin           io.Reader = os.Stdin
	guessDefaults             = guessDefaultsImpl
	parseUserConfig           = config.ParseUser
	writeUserConfig           = config.WriteUser
	lookPath                  = exec.LookPath
	getenv                    = os.Getenv
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.User
	var configPath string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the p4workspace user configuration",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(configPath, cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		fmt.Sprintf("Path to the user config (default %s)", config.UserConfigPath))
	cmd.Flags().StringVar(&cliOpts.P4Path, "p4-path", "",
		"Set the path to the p4 binary. "+
			"Optional: If not set, `p4workspace config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.Charset, "charset", "",
		"Set the charset of file names sent by the server. "+
			"Optional: If not set, `p4workspace config` will interactively prompt.")

	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-p4-path",
			short: "Get the p4 binary used to talk to the server",
			fn:    func(cfg config.User) string { return cfg.P4Path },
		},
		{
			use:   "get-charset",
			short: "Get the configured charset override",
			fn:    func(cfg config.User) string { return cfg.Charset },
		},
		{
			use:   "view",
			short: "Print the effective user config",
			fn: func(cfg config.User) string {
				out, err := yaml.Marshal(cfg)
				if err != nil {
					util.HandleFatalError(errors.WithContext(err, "marshal config"))
				}
				return strings.TrimSuffix(string(out), "\n")
			},
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Args:  cobra.NoArgs,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig(configPath)
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig prompts for the fields that weren't set on the command line,
// and writes the result to `path`.
func SetupConfig(path string, cliOpts config.User) error {
	cfg, err := generateConfig(path, cliOpts)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	path, err = writeUserConfig(path, cfg)
	if err != nil {
		return errors.WithContext(err, "write config")
	}

	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

func charsetValidationFn(charset string) (string, bool) {
	if charset == "" {
		return "", true
	}

	if _, err := p4.NewDecoder(false, charset); err != nil {
		return fmt.Sprintf("%q isn't a known charset. "+
			"Please use an IANA name such as utf8, iso-8859-1 or shift_jis, "+
			"or leave it empty to use the platform default.", charset), false
	}
	return "", true
}

func p4PathValidationFn(path string) (string, bool) {
	if strings.TrimSpace(path) == "" {
		return "The path to the p4 binary can't be empty.", false
	}
	return "", true
}

type prompt struct {
	helpString, prompt, defaultAnswer, currAnswer string
	field                                         *string
	validationFn                                  func(string) (string, bool)
}

// generateConfig interacts with the user to decide what the user's desired
// configuration is. Fields that aren't prompted for are kept from the
// current config.
func generateConfig(path string, cliOpts config.User) (config.User, error) {
	defaults := guessDefaults()
	currConfig, err := parseUserConfig(path)
	if err != nil {
		currConfig = config.DefaultUser()
		log.WithError(err).Debug("Failed to read current config")
	}

	cfg := currConfig
	cfg.P4Path = cliOpts.P4Path
	cfg.Charset = cliOpts.Charset

	var prompts []prompt
	if cliOpts.P4Path == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the path to the p4 command line client.\n" +
				"It defaults to the p4 binary in your PATH.",
			prompt:        "Path to p4",
			defaultAnswer: defaults.P4Path,
			currAnswer:    currConfig.P4Path,
			field:         &cfg.P4Path,
			validationFn:  p4PathValidationFn,
		})
	}

	if cliOpts.Charset == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the charset of file names on servers that aren't in unicode mode.\n" +
				"Leave it empty to use the platform's preferred encoding.",
			prompt:        "Charset",
			defaultAnswer: defaults.Charset,
			currAnswer:    currConfig.Charset,
			field:         &cfg.Charset,
			validationFn:  charsetValidationFn,
		})
	}

	for _, prompt := range prompts {
		var resp string
		for {
			resp, err = promptUser(prompt.helpString, prompt.prompt,
				prompt.defaultAnswer, prompt.currAnswer)
			if err != nil {
				return config.User{}, errors.WithContext(err, "read response")
			}

			if prompt.validationFn == nil {
				break
			}

			validationErr, ok := prompt.validationFn(resp)
			if ok {
				break
			}

			fmt.Fprintln(stdout, validationErr)
		}

		*prompt.field = resp
	}

	return cfg, nil
}

// guessDefaultsImpl guesses the p4 binary from PATH, and the charset from
// P4CHARSET.
func guessDefaultsImpl() (cfg config.User) {
	if path, err := lookPath("p4"); err == nil {
		cfg.P4Path = path
	} else {
		log.WithError(err).Info("Failed to find p4 in PATH")
	}

	if charset := getenv("P4CHARSET"); charset != "" && charset != "none" {
		cfg.Charset = charset
	}
	return cfg
}

func promptUser(helpString, prompt, defaultAnswer, currAnswer string) (string, error) {
	// Separate the fields with a blank line.
	defer fmt.Fprintln(stdout)

	options := []string{}
	if defaultAnswer != "" {
		options = append(options, defaultAnswer)
	}
	if currAnswer != "" && currAnswer != defaultAnswer {
		options = append(options, currAnswer)
	}
	options = append(options, "(Enter manually)")

	fmt.Fprintln(stdout, helpString+"\n"+prompt+":")

	stdinReader := bufio.NewReader(stdin)

	if nOptions := len(options); nOptions > 1 {
		fmt.Fprintln(stdout)
		for i, option := range options {
			if i == 0 {
				option = fmt.Sprintf("%s (recommended)", option)
			}
			fmt.Fprintf(stdout, "\t%d. %s\n", i+1, option)
		}
		fmt.Fprintln(stdout)

		for {
			fmt.Fprintf(stdout, "Please choose one [1-%d]: ", nOptions)
			choiceStr, err := stdinReader.ReadString('\n')
			if err != nil {
				return "", err
			}

			var choice int
			choiceStr = strings.TrimRight(choiceStr, "\r\n")

			// An empty answer picks the first option.
			if choiceStr == "" {
				choice = 1
			} else {
				choice, err = strconv.Atoi(choiceStr)
				if err != nil || choice < 1 || choice > nOptions {
					continue
				}
			}

			if choice == nOptions {
				break
			}

			return options[choice-1], nil
		}
	}

	fmt.Fprint(stdout, "Please enter manually: ")
	resp, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimRight(resp, "\r\n"), nil
}
