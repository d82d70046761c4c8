package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dshills/lexrope/internal/config"
	"github.com/dshills/lexrope/internal/export"
)

// addOutputFlags registers the rendering flags shared by lex, edit and
// inspect.
func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("format", "f", "", "output format (summary|pretty|json|msgpack)")
	f.StringSlice("kinds", nil, "only list tokens whose kind matches one of these glob patterns")
	f.Bool("indent", false, "indent JSON output")
	f.Int("width", 0, "width of the text column in pretty output")
	f.String("theme", "", "chroma style used to color pretty output")
}

// renderer writes sources in one output format.
type renderer struct {
	format  string
	json    export.JSONOptions
	pretty  export.PrettyOptions
	palette *export.Palette
}

// newRenderer resolves output flags over the configuration.
func (a *app) newRenderer(cmd *cobra.Command) (*renderer, error) {
	out := a.cfg.Output
	f := cmd.Flags()
	if f.Changed("format") {
		out.Format, _ = f.GetString("format")
	}
	if f.Changed("kinds") {
		out.Kinds, _ = f.GetStringSlice("kinds")
	}
	if f.Changed("indent") {
		out.Indent, _ = f.GetBool("indent")
	}
	if f.Changed("width") {
		out.TextWidth, _ = f.GetInt("width")
	}
	if f.Changed("theme") {
		out.Theme, _ = f.GetString("theme")
	}
	if !slices.Contains(config.Formats, out.Format) {
		return nil, fmt.Errorf("unknown format %q, want one of %v", out.Format, config.Formats)
	}

	filter := export.NewFilter(out.Kinds...)
	r := &renderer{
		format: out.Format,
		json:   export.JSONOptions{Indent: out.Indent, Filter: filter},
		pretty: export.PrettyOptions{TextWidth: out.TextWidth, Filter: filter},
	}
	if out.Format == config.FormatPretty && a.color {
		p, err := export.LoadPalette(out.Theme)
		if err != nil {
			return nil, err
		}
		p.SetEnabled(true)
		r.pretty.Palette = p
	}
	return r, nil
}

// render writes one source.
func (r *renderer) render(w io.Writer, src export.Source) error {
	switch r.format {
	case config.FormatSummary:
		return export.WriteSummary(w, export.Summarize(src))
	case config.FormatPretty:
		return export.WritePretty(w, src, r.pretty)
	case config.FormatJSON:
		return export.WriteJSON(w, src, r.json)
	case config.FormatMsgpack:
		dump, err := export.NewDump(src)
		if err != nil {
			return err
		}
		return export.EncodeMsgpack(w, dump)
	default:
		return fmt.Errorf("unknown format %q", r.format)
	}
}
