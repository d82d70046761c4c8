// Package config holds lexrope's settings.
//
// Settings come from three layers, later ones overriding earlier:
//
//  1. Built-in defaults (Default)
//  2. A TOML file, by default $XDG_CONFIG_HOME/lexrope/config.toml
//  3. LEXROPE_* environment variables, e.g. LEXROPE_ROPE_LEAF_TOKENS=64
//
// Command-line flags are applied on top by the caller. A missing file is
// not an error. Unknown keys are.
//
// Example file:
//
//	[rope]
//	leaf_tokens = 128
//	fanout = 8
//
//	[lexer]
//	dir = "~/.config/lexrope/languages"
//	timeout = "2s"
//
//	[output]
//	format = "pretty"
//	theme = "dracula"
package config
