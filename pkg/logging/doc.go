// Package logging configures the log/slog loggers used across ersatz.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//	srv := server.New(server.WithLogger(logger))
//
// Components accept a *slog.Logger through an option or setter and fall back
// to Nop when none is given, so an embedded server is silent by default.
package logging
