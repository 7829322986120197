/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"errors"
	"os"

	"github.com/fulmenhq/recipeneat/pkg/buildinfo"
	"github.com/fulmenhq/recipeneat/pkg/exitcode"
	"github.com/fulmenhq/recipeneat/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// errChangesPending is returned by `patch --diff --exit-code` when at least
// one recipe would change.
var errChangesPending = errors.New("changes pending")

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipeneat",
		Short: "Edit BitBake recipes and append files in place",
		Long: `Recipeneat updates variables in BitBake recipes without disturbing the rest
of the file, and creates or updates .bbappend files in a layer.

Examples:
   recipeneat patch --snapshot foo.yaml --set LICENSE=MIT --diff
   recipeneat append --snapshot foo.yaml --layer ../meta-custom --file defconfig
   recipeneat copy-files --snapshot foo.yaml /tmp/foo
   recipeneat validate-name foo-bar
   recipeneat version     # Show version (use --extended for build info)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
			logChangedFlags(cmd)
		},
	}

	// Add global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().Bool("no-op", false, "Run tasks without making changes (assessment mode)")

	// Wire Cobra's built-in --version using recipeneat's binary version
	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("recipeneat {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newPatchCommand())
	cmd.AddCommand(newAppendCommand())
	cmd.AddCommand(newCopyFilesCommand())
	cmd.AddCommand(newValidateNameCommand())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	code := exitCodeFor(err)
	if code != exitcode.Success && code != exitcode.ChangesPending {
		logger.Error("Command execution failed", logger.Err(err), logger.String("exit", exitcode.String(code)))
	}
	logger.Sync()
	if code != exitcode.Success {
		os.Exit(code)
	}
}

// exitCodeFor maps a command error to the process exit code.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, errChangesPending):
		return exitcode.ChangesPending
	case errors.Is(err, errConfig):
		return exitcode.ConfigError
	default:
		return exitcode.ForError(err)
	}
}

func init() {
	// Register all subcommands with the production rootCmd
	registerSubcommands(rootCmd)
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	noOp, _ := cmd.Flags().GetBool("no-op")

	logLevel, err := logger.ParseLevel(logLevelStr)
	if err != nil {
		logLevel = logger.InfoLevel
	}

	config := logger.Config{
		Level:     logLevel,
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "recipeneat",
		NoOp:      noOp,
	}

	if err := logger.Initialize(config); err != nil {
		// Fallback to stderr
		if _, writeErr := os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n"); writeErr != nil {
			// Best effort: nothing else we can do here
			_ = writeErr
		}
		os.Exit(exitcode.ConfigError)
	}
	logger.SetOutput(cmd.ErrOrStderr())
}

// logChangedFlags records the flags set on the command line at debug level.
func logChangedFlags(cmd *cobra.Command) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		logger.Debug("Flag set", logger.String("command", cmd.Name()), logger.String("flag", f.Name), logger.String("value", f.Value.String()))
	})
}
