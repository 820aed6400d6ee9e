// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// All output additionally lands in an in-memory ring buffer served by the
// log history endpoint.
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"sensor": "debug",   // Per-module overrides
//			"api":    "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("sensor")
//	logger.Info("streaming started", "width", 1920, "height", 1080)
//	logger.Warn("slow bus transaction", "duration", d)
//	logger.Error("power sequence failed", "error", err)
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("power").With("rail", name)
//	logger.Info("rail enabled")  // Includes rail in all logs
//
// # Log Levels
//
//	debug - Verbose debugging information
//	info  - General operational messages
//	warn  - Warning conditions
//	error - Error conditions
//
// # Output Destinations
//
// The system automatically detects available outputs:
//
//	Journal available + stdout available → MultiHandler (both)
//	Journal available only              → JournalHandler
//	Stdout available only               → TextHandler or JSONHandler
//
// Journal availability is checked via [github.com/coreos/go-systemd/v22/journal.Enabled].
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t sensornode              # All sensornode logs
//	journalctl -t sensornode -f           # Follow live
//	journalctl -t sensornode --since "5m" # Last 5 minutes
//	journalctl -t sensornode -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t sensornode MODULE=sensor
//	journalctl -t sensornode RAIL=vana
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only.
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	sensor = "debug"
//	api = "warn"
//	power = "error"
package logging
