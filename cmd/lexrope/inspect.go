package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/lexrope/internal/export"
	"github.com/dshills/lexrope/internal/syntax"
)

func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [flags] DUMP",
		Short: "Decode msgpack dumps written by lex --format msgpack",
		Long:  `Inspect decodes each dump in the file ("-" for stdin), rebuilds its token rope and prints it in the chosen format.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(cmd, args[0])
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func (a *app) runInspect(cmd *cobra.Command, path string) error {
	r, err := a.newRenderer(cmd)
	if err != nil {
		return err
	}

	var in io.Reader = a.stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	br := bufio.NewReader(in)

	for n := 0; ; n++ {
		if _, err := br.Peek(1); errors.Is(err, io.EOF) {
			if n == 0 {
				return fmt.Errorf("%s: no dumps", path)
			}
			return nil
		}
		dump, err := export.DecodeMsgpack(br)
		if err != nil {
			return fmt.Errorf("%s: dump %d: %w", path, n, err)
		}
		src, err := dump.Source(syntax.WithShape(a.cfg.Shape()))
		if err != nil {
			return fmt.Errorf("%s: dump %d: %w", path, n, err)
		}
		if err := src.Tokens.Rope().Validate(); err != nil {
			return fmt.Errorf("%s: dump %d: %w", path, n, err)
		}
		if err := r.render(a.stdout, src); err != nil {
			return err
		}
	}
}
