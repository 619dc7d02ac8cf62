// Package scpi owns the SCPI request/response wire mechanics.
//
// Ownership boundary:
// - command formatting and the single-write send path
// - response packet framing (newline and length-prefixed) and validation
// - typed payload decoding (text, binary, int8 samples, structured)
//
// Transport setup and the instrument command catalogue live elsewhere.
package scpi
