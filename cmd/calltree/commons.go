package main

import (
	"github.com/urfave/cli/v2"

	"github.com/vividroyjeong/calltree/pkg/analyzer/commons"
)

func commonsCmd() *cli.Command {
	return &cli.Command{
		Name:      "commons",
		Usage:     "List the COMMON block members a file, or one routine in it, assigns and reads",
		ArgsUsage: "FILE [ROUTINE]",
		Description: `FILE is the plain name of a corpus file, with or without its extension.
ROUTINE restricts the listing to one subroutine declared in FILE.`,
		Action: runCommonsCmd,
	}
}

func runCommonsCmd(c *cli.Context) error {
	if err := requireArgs(c, 1, "FILE [ROUTINE]"); err != nil {
		return err
	}

	s, err := newSession(c)
	if err != nil {
		return err
	}
	f, err := s.loadFile(c.Args().Get(0))
	if err != nil {
		return err
	}

	report, err := commons.NewUsageReport(f, c.Args().Get(1), s.classifyOptions())
	if err != nil {
		return err
	}
	return s.write(report)
}

func blocksCmd() *cli.Command {
	return &cli.Command{
		Name:      "blocks",
		Usage:     "Show the COMMON blocks declared in a file and their members",
		ArgsUsage: "FILE",
		Description: `Members declared in more than one block are shown with the block that
owns them, which is the last one declared.`,
		Action: runBlocksCmd,
	}
}

func runBlocksCmd(c *cli.Context) error {
	if err := requireArgs(c, 1, "FILE"); err != nil {
		return err
	}

	s, err := newSession(c)
	if err != nil {
		return err
	}
	f, err := s.loadFile(c.Args().First())
	if err != nil {
		return err
	}

	table, diags := commons.BlocksTable(f)
	for _, d := range diags {
		s.msg.Warning("%s", d)
	}
	return s.write(table)
}
