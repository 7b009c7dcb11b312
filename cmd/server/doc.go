// Package main is the entry point for the Flowscape workspace backend.
//
// The backend sits between the desktop shell and an embedded Chromium
// instance, owning every rendering surface the shell displays.
//
// Architecture:
//
//	Shell (UI) → Go Backend → Chromium (DevTools protocol)
//
// The server provides:
//   - WebSocket command stream for view lifecycle and state restoration
//   - REST API for health, view listing, and blocker controls
//   - Ad/tracker request blocking with remote list refresh
//   - Rate limiting and Prometheus metrics
//
// Configuration comes from environment variables (12-factor), with an
// optional YAML policy file for domain lists; see POLICY_FILE.
//
// Usage:
//
//	PORT=9700 ./server
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
