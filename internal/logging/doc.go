// Package logging provides structured logging for the lektrico tools.
//
// This package wraps a global zap logger with convenience functions. Logging is
// silent by default: nothing is written unless a level is passed to Initialize
// (the CLI's --log-level flag) or LEKTRICO_LOG_LEVEL is set.
//
// # Log Levels
//
//   - Debug: Request traces, scrape timings, refused acknowledgements
//   - Info: Commands sent to devices, exporter startup
//   - Warn: Failed commands and scrapes
//   - Error: Fatal startup issues
//
// # Structured Logging
//
//	logging.Info("Device command sent",
//	    zap.String("host", "192.168.1.20"),
//	    zap.String("command", "charge.start"),
//	)
//
// The device client takes its logger explicitly; pass GetLogger() to
// lektrico.WithLogger to route its debug traces through this package.
package logging
