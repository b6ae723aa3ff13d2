// Package logger provides structured logging on top of zerolog.
//
// Output is console or JSON, to stdout, stderr or a rotated file. Component
// loggers carry a "component" field and can be registered by name.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "file"
//	  file_path: "/var/log/voicegate.log"
//
// # Usage
//
//	log := logger.Get("capture")
//	log.Info("recording stopped", logger.Fields("reason", "silence"))
package logger
