// Package syntax holds the lexical token stream of a text buffer.
//
// Tokens is an immutable snapshot built from a full lex. Mutate opens a
// MutableView, whose ReplaceTokens splices freshly lexed tokens into the
// sequence; Tokens on the view freezes the result again. Both answer the
// same queries in O(log n):
//
//	TokenType, TokenStart, TokenEnd, IsRestartable, IsEdited
//	RestartableStateCountBefore
//	TokenIndexAtOffset
//	TokenIndexAtRestartableStateIndex, TokenIndexAtEditIndex
//
// Token types are any comparable value; they are interned into dense ids
// through a typemap shared between a snapshot and the views forked from it.
package syntax
