// Package types defines the domain entities, derived view models, storage
// configuration, and standard error types for the Cadence recurring-task
// reminder core.
package types
