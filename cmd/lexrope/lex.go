package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/lexrope/internal/export"
)

func newLexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lex [flags] FILE...",
		Short: "Lex files and print their tokens",
		Long:  `Lex reads each file ("-" for stdin), lexes it with the language chosen by its extension and prints the result. Files are lexed concurrently and printed in argument order.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLex(cmd, args)
		},
	}
	addOutputFlags(cmd)
	cmd.Flags().IntP("jobs", "j", 0, "number of files lexed at once (default GOMAXPROCS)")
	return cmd
}

func (a *app) runLex(cmd *cobra.Command, args []string) error {
	r, err := a.newRenderer(cmd)
	if err != nil {
		return err
	}
	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	sources := make([]export.Source, len(args))
	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(min(jobs, len(args)))
	for i, path := range args {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := a.openDocument(cmd, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			sources[i] = export.FromDocument(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, src := range sources {
		if err := r.render(a.stdout, src); err != nil {
			return fmt.Errorf("%s: %w", src.Name, err)
		}
	}
	return nil
}
