package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/vividroyjeong/calltree/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(os.Stdout, os.Stderr)
	if err := app.RunContext(ctx, os.Args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:    "calltree",
		Usage:   "Map COMMON block usage across a FORTRAN call tree",
		Version: version,
		Description: `calltree scans a FORTRAN corpus, records which COMMON block members each
subroutine assigns and reads, and prints the call tree below a root
subroutine annotated with that usage.

The corpus root is taken from --source, then VDYP_SOURCE_DIR, then the
config file, and defaults to ./Source.`,
		Writer:          stdout,
		ErrWriter:       stderr,
		HideHelpCommand: true,
		Flags:           globalFlags(),
		Commands: []*cli.Command{
			treeCmd(),
			commonsCmd(),
			blocksCmd(),
			cyclesCmd(),
			graphCmd(),
			configCmd(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file (TOML, YAML, or JSON)",
			EnvVars: []string{"CALLTREE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Root directory of the FORTRAN corpus",
			EnvVars: []string{config.SourceDirEnv},
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, markdown, toon (default from config)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Print scan statistics and malformed declarations",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Show a progress bar while scanning the corpus",
		},
	}
}

// requireArgs returns an error naming the missing arguments when fewer than
// n positional arguments were given.
func requireArgs(c *cli.Context, n int, usage string) error {
	if c.Args().Len() < n {
		return fmt.Errorf("%s: missing argument (usage: %s %s)", c.Command.Name, c.Command.Name, usage)
	}
	return nil
}
