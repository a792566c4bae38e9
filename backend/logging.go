package main

import (
	"os"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"
)

var (
	defaultLogger *bolt.Logger
	loggerOnce    sync.Once
)

// initLogger builds the process logger once. Format "json" emits structured
// lines for collectors; anything else gets the console handler.
func initLogger(level, format string) {
	loggerOnce.Do(func() {
		var handler bolt.Handler
		if format == "json" {
			handler = bolt.NewJSONHandler(os.Stdout)
		} else {
			handler = bolt.NewConsoleHandler(os.Stdout)
		}
		defaultLogger = bolt.New(handler).SetLevel(parseLogLevel(level))
	})
}

func logs() *bolt.Logger {
	if defaultLogger == nil {
		initLogger("info", "console")
	}
	return defaultLogger
}

func parseLogLevel(s string) bolt.Level {
	switch s {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "info":
		return bolt.INFO
	case "warn":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}
