// Package main hosts the foundrytoencounter CLI entrypoint.
//
// The command resolves configuration, overlays command-line flags, wires
// structured logging and the optional progress display, and hands the run to
// the converter. Conversion logic lives in the internal packages; this
// package only translates the terminal invocation.
package main
