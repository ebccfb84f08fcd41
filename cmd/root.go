package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/josephlewis42/smallsh/core"
	"github.com/josephlewis42/smallsh/core/config"
	"github.com/josephlewis42/smallsh/core/executor"
	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/josephlewis42/smallsh/core/signals"
	"github.com/josephlewis42/smallsh/core/spawn"
	"github.com/josephlewis42/smallsh/core/state"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var (
	cfgPath     string
	commandLine string
)

func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}

	configuration, err := config.Load(cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Couldn't load config, using defaults: did you run init?")
		return config.Default(), nil
	}

	return configuration, err
}

// setupLogging points the diagnostic log at the configured file. The
// returned func closes it.
func setupLogging(cfg *config.Configuration) (func(), error) {
	if !cfg.HasAppLog() {
		return func() {}, nil
	}

	logFd, err := cfg.OpenAppLog()
	if err != nil {
		return nil, fmt.Errorf("opening app log: %w", err)
	}
	if err := logger.Setup(logFd, cfg.LogLevel); err != nil {
		logFd.Close()
		return nil, err
	}
	return func() { logFd.Close() }, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "smallsh",
	Short: "A small POSIX shell",
	Long: `A small shell that runs one command per line with "<" and ">" redirection,
"&" for background jobs and "$$" expanding to the shell's pid.

Builtins: cd, status, exit and help. ^C only reaches foreground commands,
^Z toggles foreground-only mode in which "&" is ignored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		closeLog, err := setupLogging(cfg)
		if err != nil {
			return err
		}
		defer closeLog()
		log := logger.Component("main")

		// Run in a new session so exit only signals our own children. This
		// fails harmlessly if the shell already leads a process group.
		if _, err := unix.Setsid(); err != nil {
			log.Debug().Err(err).Msg("setsid")
		}

		st := state.New()
		controller := signals.New(st, signals.SystemPrimitives{}, cfg.Prompt)
		if err := controller.Install(); err != nil {
			return err
		}

		spawner, err := spawn.NewSpawner()
		if err != nil {
			return err
		}
		spawner.Hold = controller.HoldStop

		exec := executor.New(st, spawner)
		exec.NullDevice = cfg.NullDevice
		exec.Reporter = executor.NewReporter(os.Stderr, cfg.Color)

		sh := core.NewShell(cfg, st, controller, exec, os.Stdin, os.Stdout, os.Stderr)
		if cmd.Flags().Changed("command") {
			sh.RunOnce(commandLine)
		} else {
			sh.Run()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "configuration directory, built-in defaults if unset")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run a single line and exit")
}
