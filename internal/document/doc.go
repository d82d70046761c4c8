// Package document keeps a text and its token sequence in step.
//
// A Document lexes its text once on creation. Each Edit then relexes only
// the region it can affect: lexing restarts at the last restartable token
// at or before the edited line and stops as soon as the lexer is back in
// its normal state on a restartable boundary of the old token sequence.
// Tokens produced by a relex are flagged as edited until ClearEdited.
package document
