// Package logger provides the structured logging interface used across tkscraper.
//
// It wraps zerolog behind the Logger interface so components can be handed
// a logger at construction time and tests can swap in NewTestLogger or
// NewNopLogger.
//
//	log, err := logger.New(&cfg.Logging)
//	if err != nil {
//	    return err
//	}
//	log = log.WithField("component", "orchestrator")
//	log.InfoWithFields("page fetched", map[string]interface{}{
//	    "offset": 40,
//	    "items":  20,
//	})
//
// Only the command entry point touches the process-wide logger through
// Initialize and GetLogger.
package logger
