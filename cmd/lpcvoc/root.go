package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	logLevel  string
	logFormat string
	preset    string

	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{log: logrus.New()}

	root := &cobra.Command{
		Use:           "lpcvoc",
		Short:         "LPC cross-synthesis vocoder and phase-vocoder pitch shifter",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setupLogger(cmd)
		},
	}

	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "log format (text, json)")
	root.PersistentFlags().StringVar(&g.preset, "preset", "", "YAML preset with vocoder settings")

	root.AddCommand(
		newRenderCmd(g),
		newShiftCmd(g),
		newAnalyzeCmd(g),
		newTiersCmd(),
		newWindowsCmd(),
	)

	return root
}

func (g *globalOptions) setupLogger(cmd *cobra.Command) error {
	level, err := logrus.ParseLevel(g.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}

	g.log.SetLevel(level)
	g.log.SetOutput(cmd.ErrOrStderr())

	switch g.logFormat {
	case "text":
		g.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		g.log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid --log-format %q", g.logFormat)
	}

	return nil
}
