// Package logging configures structured slog output for hybridsearch.
//
// Without --debug, warnings and errors go to stderr as text. With --debug,
// JSON logs at debug level are also written to ~/.hybridsearch/logs/ with
// size-based rotation.
package logging
