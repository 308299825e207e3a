// Package logging provides the subsystem logger used across readauth.
//
// It is a thin layer over log/slog: every entry carries a subsystem attribute
// so output from the listener, the backend client and the session controller
// can be told apart.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Listener", "Listening on port %d", port)
//	logging.Debug("Config", "Loaded configuration from %s", path)
//	logging.Warn("Session", "No embedded auth session opener, using system browser")
//	logging.Error("Backend", err, "Failed to sign out")
//
// Token values must never be passed to the logger; log their presence or
// length instead.
//
// Before InitForCLI is called only warnings and errors are written, to stderr.
package logging
