package main

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/nixpig/jobshell/internal/jobmanager"
	"github.com/nixpig/jobshell/internal/jobmanager/sio"
	"github.com/nixpig/jobshell/internal/launch"
	"github.com/nixpig/jobshell/internal/shell"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// TODO: Inject version at build time.
const version = "0.0.1"

func rootCmd() *cobra.Command {
	cfg := &config{}

	c := &cobra.Command{
		Use:          "jobshell",
		Short:        "Tiny interactive shell with job control",
		Example:      "  jobshell -p < commands.txt",
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.load(cmd.Flags()); err != nil {
				return err
			}

			if err := cfg.validate(); err != nil {
				return err
			}

			return runShell(cmd, cfg)
		},
	}

	c.CompletionOptions.HiddenDefaultCmd = true

	bindFlags(c.Flags(), cfg)

	return c
}

func runShell(cmd *cobra.Command, cfg *config) error {
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	).With("session", uuid.NewString())

	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	logger.Debug("starting shell", "interactive", interactive)

	s := shell.New(
		jobmanager.NewTable(),
		launch.NewExecLauncher(),
		logger,
		&shell.Config{
			Prompt:      cfg.prompt,
			EmitPrompt:  !cfg.noPrompt,
			Interactive: interactive,
			Stdin:       os.Stdin,
			Stdout:      os.Stdout,
			Notices:     sio.New(int(os.Stdout.Fd())),
		},
	)

	return s.Run(cmd.Context())
}
