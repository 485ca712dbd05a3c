// Package logging builds the slog loggers used across the converter and
// provides the console handler that renders the progress stream on stderr.
package logging
