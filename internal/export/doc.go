// Package export renders token sequences for people and tools.
//
// Four forms are supported: a one-screen summary, an aligned and
// optionally colored table (WritePretty), a JSON document (WriteJSON) and
// a compact msgpack dump that can be decoded back into tokens
// (EncodeMsgpack, DecodeMsgpack). ParseScript reads the JSON edit scripts
// consumed by the edit command.
package export
