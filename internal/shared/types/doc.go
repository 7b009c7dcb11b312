// Package types provides the shared data structures of the Flowscape backend.
//
// This package defines the value types crossing package boundaries, ensuring
// type safety and consistent shapes at the UI boundary.
//
// Core Types:
//   - ViewKey, ViewInfo, Bounds: view identity and geometry
//   - CapturedPageState, Anchor: reading-position snapshots
//   - RestoreOutcome, RestoreMethod: restoration results
//   - BlockerStatus: ad/tracker blocker state
//
// Events:
//   - UIEvent and its implementations (ViewURLUpdated, RestoreResult,
//     LoadInterstitial, ...) are the typed notifications pushed to the UI
//     collaborator over the event stream.
//
// Everything here is a plain value with JSON tags; behavior lives in the
// domain packages.
package types
