// Package logger provides structured logging for the composition library
// using zerolog.
//
// It supports JSON and console output, log level configuration, and
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
//	log := logger.WithComponent("session")
//	log.Info("resolution converged", logger.Fields(logger.FieldShot, 180000))
package logger
