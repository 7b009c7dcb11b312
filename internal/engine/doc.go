// Package engine abstracts the embedded web-rendering engine behind a small
// surface-oriented API.
//
// A Surface is one rendering instance backing one page. The domain layer
// never touches the engine's wire protocol directly: everything that must
// run inside the rendered document (reading scroll offsets, searching for a
// text anchor, filling form fields) goes through Surface.Eval as a narrow
// typed RPC using the snippets registered in the script subpackage.
//
// Implementations:
//   - cdp: production implementation over the Chrome DevTools Protocol
//   - enginetest: scriptable in-memory fake for domain tests
package engine
