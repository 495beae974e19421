package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/vividroyjeong/calltree/internal/output"
	"github.com/vividroyjeong/calltree/pkg/analyzer/calltree"
)

func cyclesCmd() *cli.Command {
	return &cli.Command{
		Name:      "cycles",
		Usage:     "List groups of mutually recursive subroutines",
		ArgsUsage: "[ROOT]",
		Description: `Without ROOT the whole corpus is searched. A subroutine that calls itself
forms a group of one.`,
		Action: runCyclesCmd,
	}
}

func runCyclesCmd(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	scan, err := s.scanCorpus()
	if err != nil {
		return err
	}

	root := c.Args().First()
	cycles, err := calltree.FindCycles(scan.Registry, root)
	if err != nil {
		if s.reportNotFound(err) {
			return nil
		}
		return err
	}

	rows := make([][]string, len(cycles))
	for i, cy := range cycles {
		rows[i] = []string{strconv.Itoa(i + 1), strconv.Itoa(len(cy.Members)), strings.Join(cy.Members, ", ")}
	}

	title := "Recursive call groups"
	if root != "" {
		title += " reachable from " + strings.ToUpper(root)
	}
	table := output.NewTable(title,
		[]string{"Group", "Size", "Members"},
		rows,
		[]string{fmt.Sprintf("%d groups", len(cycles)), "", ""},
		cycles,
	)
	return s.write(table)
}

func graphCmd() *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Usage:     "Export the call graph below ROOT (Mermaid for text and markdown)",
		ArgsUsage: "ROOT",
		Action:    runGraphCmd,
	}
}

func runGraphCmd(c *cli.Context) error {
	if err := requireArgs(c, 1, "ROOT"); err != nil {
		return err
	}

	s, err := newSession(c)
	if err != nil {
		return err
	}
	scan, err := s.scanCorpus()
	if err != nil {
		return err
	}

	g, err := calltree.ExportGraph(scan.Registry, c.Args().First(), s.ignoredBlocks())
	if err != nil {
		if s.reportNotFound(err) {
			return nil
		}
		return err
	}
	s.msg.Info("%d nodes, %d edges", len(g.Nodes), len(g.Edges))
	return s.write(&calltree.GraphReport{Graph: g})
}
