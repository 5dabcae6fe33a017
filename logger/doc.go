// Package logger provides structured logging for transcribot using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("poller")
//	log.Info("round finished", logger.Fields("jobs", 3))
package logger
