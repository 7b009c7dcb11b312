// Package logging builds the backend's zap logger: JSON lines in
// production, a colored console encoder in development, and named child
// loggers per subsystem.
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	...
//	engine := logger.Component("engine")
//	engine.Info("surface created", zap.String("surface_id", id))
package logging
