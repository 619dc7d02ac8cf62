// Package transport provides the concrete byte-stream backends the SCPI
// engine drives: a USB-backed serial node and raw USB bulk endpoints.
//
// Ownership boundary:
// - device open/claim/teardown for both backends
// - mapping backend-specific timeouts onto scpi.ErrTimeout
//
// Framing and command semantics belong to the scpi package.
package transport
