// Package driving defines the interfaces that the CLI calls INTO core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// Core services implement them; the cobra commands consume them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driving
