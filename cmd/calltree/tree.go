package main

import (
	"github.com/urfave/cli/v2"

	"github.com/vividroyjeong/calltree/pkg/analyzer/calltree"
)

func treeCmd() *cli.Command {
	return &cli.Command{
		Name:      "tree",
		Usage:     "Print the call tree below ROOT annotated with COMMON block usage",
		ArgsUsage: "ROOT",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "blocks-only",
				Aliases: []string{"b"},
				Usage:   "Show block names without their members",
			},
			&cli.BoolFlag{
				Name:    "assignments-only",
				Aliases: []string{"a"},
				Usage:   "Show assignments only, not usages",
			},
			&cli.BoolFlag{
				Name:    "exclude-no-commons-usages",
				Aliases: []string{"x"},
				Usage:   "Omit subtrees that touch no COMMON block outside the ignored set",
			},
		},
		Action: runTreeCmd,
	}
}

func runTreeCmd(c *cli.Context) error {
	if err := requireArgs(c, 1, "ROOT"); err != nil {
		return err
	}
	root := c.Args().First()

	s, err := newSession(c)
	if err != nil {
		return err
	}
	scan, err := s.scanCorpus()
	if err != nil {
		return err
	}

	opts := calltree.RenderOptions{
		BlocksOnly:             c.Bool("blocks-only"),
		AssignmentsOnly:        c.Bool("assignments-only"),
		ExcludeNoCommonsUsages: c.Bool("exclude-no-commons-usages"),
		IgnoredBlocks:          s.ignoredBlocks(),
		Layout:                 s.layout(),
	}
	report, err := calltree.NewTreeReport(scan.Registry, root, opts)
	if err != nil {
		if s.reportNotFound(err) {
			return nil
		}
		return err
	}
	if report.Tree != nil {
		s.msg.Info("%d nodes in the tree", report.Tree.Count())
	}
	return s.write(report)
}
