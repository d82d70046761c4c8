package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/lexrope/internal/document"
	"github.com/dshills/lexrope/internal/export"
)

func newEditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [flags] FILE --script EDITS.json",
		Short: "Apply scripted edits with incremental relexing",
		Long: `Edit lexes FILE, then applies each edit of the script in order, relexing
only the affected tokens. With --verify every step is checked against a full
relex. The resulting tokens are printed; tokens touched by the edits are
flagged as edited.

A script is a JSON array of edits, for example:

  [{"op": "insert", "at": 10, "text": "x"},
   {"op": "delete", "start": 0, "end": 3},
   {"op": "replace", "start": 4, "end": 6, "text": "abc"}]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEdit(cmd, args[0])
		},
	}
	addOutputFlags(cmd)
	cmd.Flags().StringP("script", "s", "", "JSON edit script (required)")
	cmd.Flags().Bool("verify", false, "compare each incremental relex with a full relex")
	cmd.Flags().Bool("stats", false, "print relex statistics for each edit to stderr")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func (a *app) runEdit(cmd *cobra.Command, path string) error {
	r, err := a.newRenderer(cmd)
	if err != nil {
		return err
	}
	scriptPath, _ := cmd.Flags().GetString("script")
	verify, _ := cmd.Flags().GetBool("verify")
	showStats, _ := cmd.Flags().GetBool("stats")

	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return err
	}
	edits, err := export.ParseScript(data)
	if err != nil {
		return fmt.Errorf("%s: %w", scriptPath, err)
	}

	doc, err := a.openDocument(cmd, path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for i, e := range edits {
		stats, err := doc.Apply(e)
		if err != nil {
			return fmt.Errorf("edit %d %s: %w", i, e, err)
		}
		if verify {
			if err := doc.Verify(); err != nil {
				return fmt.Errorf("edit %d %s: %w", i, e, err)
			}
		}
		if showStats {
			printStats(a, stats)
		}
	}
	a.log.Info("applied %d edits to %s", len(edits), path)

	return r.render(a.stdout, export.FromDocument(doc))
}

func printStats(a *app, s document.RelexStats) {
	fmt.Fprintf(a.stderr, "rev %d %s: restart token %d at %d, -%d +%d tokens, %d bytes, %s\n",
		s.Revision, s.Edit, s.RestartToken, s.RestartOffset, s.Removed, s.Inserted, s.Relexed, s.Duration)
}
