package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/lexrope/internal/document"
	"github.com/dshills/lexrope/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] FILE...",
		Short: "Relex files incrementally as they change",
		Long:  `Watch lexes each file, then relexes it incrementally every time it is saved and prints one line per change until interrupted.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, args)
		},
	}
	cmd.Flags().Duration("debounce", 0, "quiet period before a change is processed")
	cmd.Flags().Bool("verify", false, "compare each incremental relex with a full relex")
	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, args []string) error {
	debounce := a.cfg.Watch.Debounce.Duration
	if cmd.Flags().Changed("debounce") {
		debounce, _ = cmd.Flags().GetDuration("debounce")
	}
	verify := a.cfg.Watch.Verify
	if cmd.Flags().Changed("verify") {
		verify, _ = cmd.Flags().GetBool("verify")
	}

	w, err := watch.New(watch.WithDebounce(debounce), watch.WithLogger(a.log))
	if err != nil {
		return err
	}
	defer w.Close()

	docs := make(map[string]*document.Document, len(args))
	for _, path := range args {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		doc, err := a.openDocument(cmd, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := w.Add(abs); err != nil {
			return err
		}
		docs[abs] = doc
		fmt.Fprintf(a.stdout, "%s: %d tokens\n", path, doc.Tokens().TokenCount())
	}

	err = w.Run(cmd.Context(), func(ev watch.Event) error {
		doc, ok := docs[ev.Path]
		if !ok {
			return nil
		}
		return a.relex(doc, ev, verify)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// relex brings doc up to date with the file named by ev.
func (a *app) relex(doc *document.Document, ev watch.Event, verify bool) error {
	if ev.Removed() {
		a.log.Warn("%s was removed (%s)", doc.Name(), ev.Op)
		return nil
	}
	data, err := os.ReadFile(ev.Path)
	if err != nil {
		a.log.Warn("read %s: %v", doc.Name(), err)
		return nil
	}

	stats, err := doc.SetText(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", doc.Name(), err)
	}
	if stats.Edit.IsNoOp() {
		return nil
	}
	if verify {
		if err := doc.Verify(); err != nil {
			return fmt.Errorf("%s: %w", doc.Name(), err)
		}
	}
	if err := doc.ClearEdited(); err != nil {
		return fmt.Errorf("%s: %w", doc.Name(), err)
	}

	fmt.Fprintf(a.stdout, "%s: rev %d, %s, -%d +%d tokens (%d total) in %s\n",
		doc.Name(), stats.Revision, stats.Edit, stats.Removed, stats.Inserted,
		doc.Tokens().TokenCount(), stats.Duration)
	return nil
}
