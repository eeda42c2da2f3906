/*
Package log provides structured logging for the plot engine using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("engine")                  │          │
	│  │  - WithSalt(salt)                           │          │
	│  │  - WithPeer(peerID)                         │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "engine",                   │          │
	│  │    "time": "2024-10-13T10:30:00Z",         │          │
	│  │    "message": "commitment created"          │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  2024-10-13T10:30:00Z INF commitment created component=engine │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all packages in this module
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithSalt: Add a hex-encoded salt field (commitment lifecycle logs)
  - WithPeer: Add a hex-encoded peer field (record-store logs)

# Usage

Initializing the Logger:

	import "github.com/cuemby/plotengine/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Simple Logging:

	log.Info("plot engine starting")
	log.Debug("scanning commitment directory")
	log.Warn("orphaned .inprogress commitment directory found")
	log.Error("failed to open piece file")
	log.Fatal("cannot start without plot metadata db") // Exits process

Structured Logging:

	log.Logger.Info().
		Uint64("piece_count", count).
		Msg("plot extended")

	log.Logger.Error().
		Err(err).
		Msg("commitment batch failed")

Component and Context Loggers:

	engineLog := log.WithComponent("engine")
	engineLog.Info().Msg("starting request loop")

	saltLog := log.WithSalt(salt)
	saltLog.Info().Msg("commitment created")

	peerLog := log.WithPeer(peerID)
	peerLog.Debug().Msg("record stored")

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

Structured Logging Pattern:
  - Use typed fields (.Str, .Uint64, .Err)
  - Enables log aggregation and querying
  - Parseable by log analysis tools

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log
